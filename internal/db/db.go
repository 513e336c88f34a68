package db

import (
	"context"
	"database/sql"
	"errors"
	"time"

	_ "github.com/lib/pq"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/pgdialect"
	"github.com/uptrace/bun/driver/pgdriver"
	"github.com/uptrace/bun/extra/bundebug"

	"contract-discovery/internal/config"
	"contract-discovery/internal/models"
)

type CompanyProfile struct {
	bun.BaseModel `bun:"table:company_profiles,alias:cp"`
	ID            int64     `bun:"id,pk,autoincrement"`
	FirmID        string    `bun:"firm_id,notnull"`
	CompanyName   string    `bun:"company_name,notnull"`
	Description   string    `bun:"description"`
	CreatedAt     time.Time `bun:"created_at,nullzero,notnull,default:current_timestamp"`
}

type CompanyCapability struct {
	bun.BaseModel   `bun:"table:company_capabilities,alias:cc"`
	ID              int64  `bun:"id,pk,autoincrement"`
	CompanyID       int64  `bun:"company_id,notnull"`
	CapabilityText  string `bun:"capability_text,notnull"`
	Category        string `bun:"category"`
	YearsExperience int    `bun:"years_experience"`
	VectorID        string `bun:"vector_id"`
}

type PastWin struct {
	bun.BaseModel `bun:"table:past_wins,alias:pw"`
	ID            int64     `bun:"id,pk,autoincrement"`
	CompanyID     int64     `bun:"company_id,notnull"`
	ContractTitle string    `bun:"contract_title,notnull"`
	BuyerName     string    `bun:"buyer_name,notnull"`
	ContractValue float64   `bun:"contract_value"`
	AwardDate     time.Time `bun:"award_date"`
}

type SearchPreference struct {
	bun.BaseModel      `bun:"table:search_preferences,alias:sp"`
	ID                 int64    `bun:"id,pk,autoincrement"`
	CompanyID          int64    `bun:"company_id,notnull,unique"`
	MinContractValue   float64  `bun:"min_contract_value"`
	MaxContractValue   float64  `bun:"max_contract_value"`
	PreferredRegions   []string `bun:"preferred_regions,type:jsonb"`
	ExcludedCategories []string `bun:"excluded_categories,type:jsonb"`
	Keywords           []string `bun:"keywords,type:jsonb"`
}

type ContractNotice struct {
	bun.BaseModel `bun:"table:contract_notices,alias:cn"`
	ID            int64     `bun:"id,pk,autoincrement"`
	NoticeID      string    `bun:"notice_id,notnull,unique"`
	Title         string    `bun:"title,notnull"`
	Description   string    `bun:"description"`
	BuyerName     string    `bun:"buyer_name"`
	Value         float64   `bun:"value"`
	Region        string    `bun:"region"`
	CPVCodes      []string  `bun:"cpv_codes,type:jsonb"`
	PublishedDate time.Time `bun:"published_date,nullzero"`
	ClosingDate   time.Time `bun:"closing_date,nullzero"`
	VectorID      string    `bun:"vector_id"`
}

type SavedContract struct {
	bun.BaseModel `bun:"table:saved_contracts,alias:sc"`
	ID            int64     `bun:"id,pk,autoincrement"`
	FirmID        string    `bun:"firm_id,notnull"`
	NoticeID      string    `bun:"notice_id,notnull"`
	ContractTitle string    `bun:"contract_title,notnull"`
	BuyerName     string    `bun:"buyer_name"`
	ContractValue float64   `bun:"contract_value"`
	Status        string    `bun:"status,notnull,default:'interested'"`
	Notes         string    `bun:"notes"`
	SavedAt       time.Time `bun:"saved_at,nullzero,notnull,default:current_timestamp"`
}

func ConnectDB(cfg *config.DatabaseConfig) (*sql.DB, error) {
	dsn := cfg.DSN + "?sslmode=disable"
	return sql.OpenDB(pgdriver.NewConnector(pgdriver.WithDSN(dsn), pgdriver.WithPassword(cfg.Password))), nil
}

func NewDB(sqldb *sql.DB, debug bool) *bun.DB {
	db := bun.NewDB(sqldb, pgdialect.New())
	if debug {
		db.AddQueryHook(bundebug.NewQueryHook(bundebug.WithVerbose(true)))
	}
	return db
}

func InitDB(ctx context.Context, db *bun.DB) error {
	tables := []any{
		(*CompanyProfile)(nil),
		(*CompanyCapability)(nil),
		(*PastWin)(nil),
		(*SearchPreference)(nil),
		(*ContractNotice)(nil),
		(*SavedContract)(nil),
	}
	for _, table := range tables {
		if _, err := db.NewCreateTable().Model(table).IfNotExists().Exec(ctx); err != nil {
			return err
		}
	}
	return nil
}

func CreateProfile(ctx context.Context, db *bun.DB, profile *CompanyProfile) error {
	_, err := db.NewInsert().Model(profile).Exec(ctx)
	return err
}

func AddCapability(ctx context.Context, db *bun.DB, capability *CompanyCapability) error {
	_, err := db.NewInsert().Model(capability).Exec(ctx)
	return err
}

// UpdateCapability writes the capability's current text and vector
// reference back to its row.
func UpdateCapability(ctx context.Context, db *bun.DB, capability *CompanyCapability) error {
	_, err := db.NewUpdate().
		Model(capability).
		Column("capability_text", "vector_id").
		WherePK().
		Exec(ctx)
	return err
}

func GetCapability(ctx context.Context, db *bun.DB, id int64) (*CompanyCapability, error) {
	capability := new(CompanyCapability)
	err := db.NewSelect().Model(capability).Where("cc.id = ?", id).Scan(ctx)
	if err != nil {
		return nil, err
	}
	return capability, nil
}

// CapabilitiesWithoutVector returns the firm's capabilities not yet
// synced to the vector store. Scoped through the firm's profile so one
// firm's sync never touches another firm's rows.
func CapabilitiesWithoutVector(ctx context.Context, db *bun.DB, firmID string) ([]CompanyCapability, error) {
	var capabilities []CompanyCapability
	err := capabilitiesWithoutVectorQuery(db, firmID, &capabilities).Scan(ctx)
	return capabilities, err
}

func capabilitiesWithoutVectorQuery(db *bun.DB, firmID string, capabilities *[]CompanyCapability) *bun.SelectQuery {
	return db.NewSelect().
		Model(capabilities).
		Join("JOIN company_profiles AS cp ON cp.id = cc.company_id").
		Where("cp.firm_id = ?", firmID).
		Where("cc.vector_id IS NULL OR cc.vector_id = ''")
}

func AddPastWin(ctx context.Context, db *bun.DB, win *PastWin) error {
	_, err := db.NewInsert().Model(win).Exec(ctx)
	return err
}

func SetPreferences(ctx context.Context, db *bun.DB, preferences *SearchPreference) error {
	_, err := db.NewInsert().
		Model(preferences).
		On("CONFLICT (company_id) DO UPDATE").
		Set("min_contract_value = EXCLUDED.min_contract_value").
		Set("max_contract_value = EXCLUDED.max_contract_value").
		Set("preferred_regions = EXCLUDED.preferred_regions").
		Set("excluded_categories = EXCLUDED.excluded_categories").
		Set("keywords = EXCLUDED.keywords").
		Exec(ctx)
	return err
}

// UpsertContracts writes contract notices keyed by notice ID, replacing
// stale copies of notices that were re-published or re-imported.
func UpsertContracts(ctx context.Context, db *bun.DB, contracts []models.Contract) error {
	if len(contracts) == 0 {
		return nil
	}
	notices := make([]ContractNotice, 0, len(contracts))
	for _, contract := range contracts {
		notices = append(notices, ContractNotice{
			NoticeID:      contract.NoticeID,
			Title:         contract.Title,
			Description:   contract.Description,
			BuyerName:     contract.BuyerName,
			Value:         contract.Value,
			Region:        contract.Region,
			CPVCodes:      contract.CPVCodes,
			PublishedDate: contract.PublishedDate,
			ClosingDate:   contract.ClosingDate,
			VectorID:      contract.VectorID,
		})
	}
	_, err := db.NewInsert().
		Model(&notices).
		On("CONFLICT (notice_id) DO UPDATE").
		Set("title = EXCLUDED.title").
		Set("description = EXCLUDED.description").
		Set("buyer_name = EXCLUDED.buyer_name").
		Set("value = EXCLUDED.value").
		Set("region = EXCLUDED.region").
		Set("cpv_codes = EXCLUDED.cpv_codes").
		Set("published_date = EXCLUDED.published_date").
		Set("closing_date = EXCLUDED.closing_date").
		Set("vector_id = EXCLUDED.vector_id").
		Exec(ctx)
	return err
}

// ContractCandidates returns stored notices that are still open, newest
// first. Notices without a closing date are treated as open.
func ContractCandidates(ctx context.Context, db *bun.DB) ([]models.Contract, error) {
	var notices []ContractNotice
	err := db.NewSelect().
		Model(&notices).
		Where("closing_date IS NULL OR closing_date >= ?", time.Now().UTC()).
		Order("published_date DESC").
		Scan(ctx)
	if err != nil {
		return nil, err
	}

	contracts := make([]models.Contract, 0, len(notices))
	for _, notice := range notices {
		contracts = append(contracts, models.Contract{
			NoticeID:      notice.NoticeID,
			Title:         notice.Title,
			Description:   notice.Description,
			BuyerName:     notice.BuyerName,
			Value:         notice.Value,
			Region:        notice.Region,
			CPVCodes:      notice.CPVCodes,
			PublishedDate: notice.PublishedDate,
			ClosingDate:   notice.ClosingDate,
			VectorID:      notice.VectorID,
		})
	}
	return contracts, nil
}

func GetContractNotice(ctx context.Context, db *bun.DB, noticeID string) (*ContractNotice, error) {
	notice := new(ContractNotice)
	err := db.NewSelect().Model(notice).Where("notice_id = ?", noticeID).Limit(1).Scan(ctx)
	if err != nil {
		return nil, err
	}
	return notice, nil
}

func SaveContract(ctx context.Context, db *bun.DB, saved *SavedContract) error {
	_, err := db.NewInsert().Model(saved).Exec(ctx)
	return err
}

func SavedContracts(ctx context.Context, db *bun.DB, firmID string) ([]SavedContract, error) {
	var saved []SavedContract
	err := db.NewSelect().
		Model(&saved).
		Where("firm_id = ?", firmID).
		Order("saved_at DESC").
		Scan(ctx)
	return saved, err
}

// LoadProfile assembles the scorer's view of a firm from the relational
// tables. Returns nil without error when the firm has no profile.
func LoadProfile(ctx context.Context, db *bun.DB, firmID string) (*models.CompanyProfile, error) {
	var profile CompanyProfile
	err := db.NewSelect().
		Model(&profile).
		Where("firm_id = ?", firmID).
		Limit(1).
		Scan(ctx)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	var capabilities []CompanyCapability
	if err := db.NewSelect().Model(&capabilities).Where("company_id = ?", profile.ID).Scan(ctx); err != nil {
		return nil, err
	}

	var wins []PastWin
	if err := db.NewSelect().Model(&wins).Where("company_id = ?", profile.ID).Scan(ctx); err != nil {
		return nil, err
	}

	var preference SearchPreference
	hasPreference := true
	err = db.NewSelect().Model(&preference).Where("company_id = ?", profile.ID).Limit(1).Scan(ctx)
	if errors.Is(err, sql.ErrNoRows) {
		hasPreference = false
	} else if err != nil {
		return nil, err
	}

	assembled := &models.CompanyProfile{
		FirmID:      profile.FirmID,
		CompanyName: profile.CompanyName,
	}
	for _, capability := range capabilities {
		assembled.Capabilities = append(assembled.Capabilities, models.Capability{
			Text:            capability.CapabilityText,
			Category:        capability.Category,
			YearsExperience: capability.YearsExperience,
			VectorID:        capability.VectorID,
		})
	}
	for _, win := range wins {
		assembled.PastWins = append(assembled.PastWins, models.PastWin{
			ContractTitle: win.ContractTitle,
			BuyerName:     win.BuyerName,
			ContractValue: win.ContractValue,
			AwardDate:     win.AwardDate,
		})
	}
	if hasPreference {
		assembled.Preferences = &models.SearchPreference{
			MinContractValue:   preference.MinContractValue,
			MaxContractValue:   preference.MaxContractValue,
			PreferredRegions:   preference.PreferredRegions,
			ExcludedCategories: preference.ExcludedCategories,
			Keywords:           preference.Keywords,
		}
	}
	return assembled, nil
}
