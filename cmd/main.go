package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/tmc/langchaingo/embeddings"
	"github.com/uptrace/bun"

	"contract-discovery/internal/capability"
	"contract-discovery/internal/chromemdb"
	"contract-discovery/internal/chunker"
	"contract-discovery/internal/config"
	"contract-discovery/internal/db"
	"contract-discovery/internal/embedding"
	"contract-discovery/internal/fetcher"
	"contract-discovery/internal/helper"
	"contract-discovery/internal/importer"
	"contract-discovery/internal/ingest"
	"contract-discovery/internal/llmservice"
	"contract-discovery/internal/match"
	"contract-discovery/internal/scoring"
)

const configFilePath = "./configs/config.yaml"

func main() {
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix
	zerolog.SetGlobalLevel(zerolog.InfoLevel)
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stdout, TimeFormat: time.RFC3339}).With().Caller().Logger()

	initDB := flag.Bool("init-db", false, "Create the relational tables")
	documentPath := flag.String("ingest", "", "Path to a legal document to ingest (pdf, docx, md, txt)")
	contractsPath := flag.String("import", "", "Path to a contracts file to import (csv, xlsx, ods)")
	fetchDays := flag.Int("fetch", 0, "Fetch notices published in the last N days from Contracts Finder")
	profilePath := flag.String("register", "", "Path to a company profile YAML to register")
	syncCapabilities := flag.Bool("sync-capabilities", false, "Embed capabilities that have no vector yet")
	updateCapabilityID := flag.Int64("update-capability", 0, "Capability ID to re-embed with new text (with -text)")
	text := flag.String("text", "", "New capability text (with -update-capability)")
	firmID := flag.String("firm", "", "Firm ID for matching, capability ops and saved contracts")
	runMatch := flag.Bool("match", false, "Rank stored contracts against the firm profile")
	summarize := flag.Int("summarize", 0, "Generate LLM summaries for the top N matches (with -match)")
	saveNotice := flag.String("save", "", "Save a contract notice for the firm (with -firm)")
	notes := flag.String("notes", "", "Notes to attach to a saved contract (with -save)")
	listSaved := flag.Bool("saved", false, "List the firm's saved contracts (with -firm)")
	query := flag.String("query", "", "Similarity search over ingested documents")
	exportCollection := flag.String("export", "", "Export an encrypted snapshot of a vector collection (contracts, capabilities, legal_documents)")
	restorePath := flag.String("restore", "", "Restore vector collections from a snapshot file")
	debug := flag.Bool("debug", false, "Enable debug logging")
	flag.Parse()

	if *debug {
		zerolog.SetGlobalLevel(zerolog.DebugLevel)
	}

	ctx := context.Background()

	switch {
	case *initDB:
		initDatabase(ctx)
	case *documentPath != "":
		ingestDocument(ctx, *documentPath)
	case *contractsPath != "":
		importContracts(ctx, *contractsPath)
	case *fetchDays > 0:
		fetchNotices(ctx, *fetchDays)
	case *profilePath != "":
		registerProfile(ctx, *profilePath)
	case *syncCapabilities:
		syncCapabilityVectors(ctx, *firmID)
	case *updateCapabilityID > 0:
		updateCapability(ctx, *updateCapabilityID, *firmID, *text)
	case *runMatch:
		matchContracts(ctx, *firmID, *summarize)
	case *saveNotice != "":
		saveContract(ctx, *firmID, *saveNotice, *notes)
	case *listSaved:
		listSavedContracts(ctx, *firmID)
	case *query != "":
		searchDocuments(ctx, *query)
	case *exportCollection != "":
		exportVectors(ctx, *exportCollection)
	case *restorePath != "":
		restoreVectors(ctx, *restorePath)
	default:
		flag.Usage()
	}
}

func loadConfig() *config.Config {
	cfg, err := config.LoadConfig(configFilePath)
	if err != nil {
		log.Fatal().Err(err).Msg("Error loading config")
	}
	return cfg
}

func openDatabase(cfg *config.Config) *bun.DB {
	dbClient, err := db.ConnectDB(&cfg.Database)
	if err != nil {
		log.Fatal().Err(err).Msg("Error connecting to database")
	}
	return db.NewDB(dbClient, cfg.Database.Debug)
}

func openVectors(cfg *config.Config) *chromemdb.VectorDBManager {
	if !cfg.Vector.InMemory {
		if err := helper.CreateFolder(cfg.Vector.Path); err != nil {
			log.Fatal().Err(err).Msg("Error creating vector db folder")
		}
	}
	vectors, err := chromemdb.NewVectorDBManager(cfg.Vector)
	if err != nil {
		log.Fatal().Err(err).Msg("Error creating vector database manager")
	}
	return vectors
}

func newEmbedder(cfg *config.Config) *embeddings.EmbedderImpl {
	embedder, err := embedding.NewEmbedder(&cfg.EmbedLLM)
	if err != nil {
		log.Fatal().Err(err).Msg("Error initializing embedder")
	}
	return embedder
}

func initDatabase(ctx context.Context) {
	cfg := loadConfig()
	database := openDatabase(cfg)
	defer database.Close()

	if err := db.InitDB(ctx, database); err != nil {
		log.Fatal().Err(err).Msg("Error initializing database")
	}
	log.Info().Msg("Database initialized")
}

func ingestDocument(ctx context.Context, filePath string) {
	cfg := loadConfig()
	vectors := openVectors(cfg)
	embedder := newEmbedder(cfg)

	service := ingest.NewService(chunker.New(cfg.Chunker), embedder, vectors)
	stats, err := service.ProcessDocument(ctx, filePath)
	if err != nil {
		log.Fatal().Err(err).Msg("Error ingesting document")
	}
	fmt.Println(helper.PrettyPrint(stats))
}

func importContracts(ctx context.Context, filePath string) {
	cfg := loadConfig()
	database := openDatabase(cfg)
	defer database.Close()
	vectors := openVectors(cfg)
	embedder := newEmbedder(cfg)

	contracts, err := importer.ParseContractsFile(filePath)
	if err != nil {
		log.Fatal().Err(err).Msg("Error parsing contracts file")
	}

	service := ingest.NewService(chunker.New(cfg.Chunker), embedder, vectors)
	stored, err := service.StoreContracts(ctx, contracts)
	if err != nil {
		log.Fatal().Err(err).Msg("Error storing contracts")
	}
	if err := db.UpsertContracts(ctx, database, stored); err != nil {
		log.Fatal().Err(err).Msg("Error saving contracts")
	}
	log.Info().Int("contracts", len(stored)).Msg("Imported contracts")
}

func fetchNotices(ctx context.Context, days int) {
	cfg := loadConfig()
	database := openDatabase(cfg)
	defer database.Close()
	vectors := openVectors(cfg)
	embedder := newEmbedder(cfg)

	client := fetcher.NewClient(cfg.Fetcher)
	to := time.Now().UTC()
	from := to.Add(-time.Duration(days) * 24 * time.Hour)
	contracts, err := client.FetchContracts(ctx, from, to)
	if err != nil {
		log.Fatal().Err(err).Msg("Error fetching notices")
	}

	service := ingest.NewService(chunker.New(cfg.Chunker), embedder, vectors)
	stored, err := service.StoreContracts(ctx, contracts)
	if err != nil {
		log.Fatal().Err(err).Msg("Error storing fetched contracts")
	}
	if err := db.UpsertContracts(ctx, database, stored); err != nil {
		log.Fatal().Err(err).Msg("Error saving fetched contracts")
	}
	log.Info().Int("contracts", len(stored)).Msg("Fetched and stored notices")
}

func registerProfile(ctx context.Context, filePath string) {
	cfg := loadConfig()
	database := openDatabase(cfg)
	defer database.Close()
	vectors := openVectors(cfg)
	embedder := newEmbedder(cfg)

	seed, err := importer.ParseProfileFile(filePath)
	if err != nil {
		log.Fatal().Err(err).Msg("Error parsing profile file")
	}

	profile := &db.CompanyProfile{
		FirmID:      seed.FirmID,
		CompanyName: seed.CompanyName,
		Description: seed.Description,
	}
	if err := db.CreateProfile(ctx, database, profile); err != nil {
		log.Fatal().Err(err).Msg("Error creating profile")
	}

	store := capability.NewStore(database, vectors, embedder)
	for _, c := range seed.Capabilities {
		err := store.Add(ctx, seed.FirmID, &db.CompanyCapability{
			CompanyID:       profile.ID,
			CapabilityText:  c.Text,
			Category:        c.Category,
			YearsExperience: c.YearsExperience,
		})
		if err != nil {
			log.Fatal().Err(err).Str("capability", c.Text).Msg("Error adding capability")
		}
	}

	for _, w := range seed.PastWins {
		awardDate, _ := time.Parse("2006-01-02", w.AwardDate)
		err := db.AddPastWin(ctx, database, &db.PastWin{
			CompanyID:     profile.ID,
			ContractTitle: w.ContractTitle,
			BuyerName:     w.BuyerName,
			ContractValue: w.ContractValue,
			AwardDate:     awardDate,
		})
		if err != nil {
			log.Fatal().Err(err).Str("title", w.ContractTitle).Msg("Error adding past win")
		}
	}

	if seed.Preferences != nil {
		err := db.SetPreferences(ctx, database, &db.SearchPreference{
			CompanyID:          profile.ID,
			MinContractValue:   seed.Preferences.MinContractValue,
			MaxContractValue:   seed.Preferences.MaxContractValue,
			PreferredRegions:   seed.Preferences.PreferredRegions,
			ExcludedCategories: seed.Preferences.ExcludedCategories,
			Keywords:           seed.Preferences.Keywords,
		})
		if err != nil {
			log.Fatal().Err(err).Msg("Error setting preferences")
		}
	}

	log.Info().
		Str("firm_id", seed.FirmID).
		Int("capabilities", len(seed.Capabilities)).
		Int("past_wins", len(seed.PastWins)).
		Msg("Registered company profile")
}

func updateCapability(ctx context.Context, capabilityID int64, firmID, text string) {
	if firmID == "" || text == "" {
		log.Fatal().Msg("Please provide -firm and -text with -update-capability")
	}
	cfg := loadConfig()
	database := openDatabase(cfg)
	defer database.Close()
	vectors := openVectors(cfg)
	embedder := newEmbedder(cfg)

	existing, err := db.GetCapability(ctx, database, capabilityID)
	if err != nil {
		log.Fatal().Err(err).Int64("capability_id", capabilityID).Msg("Error loading capability")
	}

	store := capability.NewStore(database, vectors, embedder)
	if err := store.Update(ctx, firmID, existing, text); err != nil {
		log.Fatal().Err(err).Msg("Error updating capability")
	}
	log.Info().Int64("capability_id", capabilityID).Msg("Capability updated")
}

func saveContract(ctx context.Context, firmID, noticeID, notes string) {
	if firmID == "" {
		log.Fatal().Msg("Please provide a firm ID using the -firm flag")
	}
	cfg := loadConfig()
	database := openDatabase(cfg)
	defer database.Close()

	notice, err := db.GetContractNotice(ctx, database, noticeID)
	if err != nil {
		log.Fatal().Err(err).Str("notice_id", noticeID).Msg("Error loading contract notice")
	}

	err = db.SaveContract(ctx, database, &db.SavedContract{
		FirmID:        firmID,
		NoticeID:      notice.NoticeID,
		ContractTitle: notice.Title,
		BuyerName:     notice.BuyerName,
		ContractValue: notice.Value,
		Status:        "interested",
		Notes:         notes,
	})
	if err != nil {
		log.Fatal().Err(err).Msg("Error saving contract")
	}
	log.Info().Str("notice_id", noticeID).Msg("Saved contract")
}

func listSavedContracts(ctx context.Context, firmID string) {
	if firmID == "" {
		log.Fatal().Msg("Please provide a firm ID using the -firm flag")
	}
	cfg := loadConfig()
	database := openDatabase(cfg)
	defer database.Close()

	saved, err := db.SavedContracts(ctx, database, firmID)
	if err != nil {
		log.Fatal().Err(err).Msg("Error listing saved contracts")
	}
	for _, s := range saved {
		fmt.Printf("%s  %-10s  %s (%s, £%.0f)\n", s.SavedAt.Format("2006-01-02"), s.Status, s.ContractTitle, s.BuyerName, s.ContractValue)
		if s.Notes != "" {
			fmt.Printf("    %s\n", s.Notes)
		}
	}
}

func syncCapabilityVectors(ctx context.Context, firmID string) {
	if firmID == "" {
		log.Fatal().Msg("Please provide a firm ID using the -firm flag")
	}
	cfg := loadConfig()
	database := openDatabase(cfg)
	defer database.Close()
	vectors := openVectors(cfg)
	embedder := newEmbedder(cfg)

	store := capability.NewStore(database, vectors, embedder)
	synced, err := store.SyncAll(ctx, firmID)
	if err != nil {
		log.Fatal().Err(err).Msg("Error syncing capabilities")
	}
	log.Info().Int("synced", synced).Msg("Capability sync complete")
}

func matchContracts(ctx context.Context, firmID string, summarizeTop int) {
	if firmID == "" {
		log.Fatal().Msg("Please provide a firm ID using the -firm flag")
	}
	cfg := loadConfig()
	database := openDatabase(cfg)
	defer database.Close()
	vectors := openVectors(cfg)

	profile, err := db.LoadProfile(ctx, database, firmID)
	if err != nil {
		log.Fatal().Err(err).Msg("Error loading profile")
	}
	if profile == nil {
		log.Fatal().Str("firm_id", firmID).Msg("No profile found for firm")
	}

	contracts, err := db.ContractCandidates(ctx, database)
	if err != nil {
		log.Fatal().Err(err).Msg("Error loading contract candidates")
	}

	matcher := match.NewMatcher(scoring.NewScorer(cfg.Scoring), vectors)
	matched, err := matcher.MatchContracts(ctx, *profile, contracts)
	if err != nil {
		log.Fatal().Err(err).Msg("Error matching contracts")
	}

	for i, m := range matched {
		fmt.Printf("%2d. [%.2f] %s (%s, £%.0f)\n", i+1, m.Result.TotalScore, m.Contract.Title, m.Contract.BuyerName, m.Contract.Value)
		for _, reason := range m.Result.MatchReasons {
			fmt.Printf("      - %s\n", reason)
		}
	}

	for i := 0; i < summarizeTop && i < len(matched); i++ {
		summary, err := llmservice.SummarizeMatch(ctx, &cfg.LLM, *profile, matched[i])
		if err != nil {
			log.Error().Err(err).Str("notice_id", matched[i].Contract.NoticeID).Msg("Error summarizing match")
			continue
		}
		fmt.Printf("\n=== %s ===\n%s\n", matched[i].Contract.Title, summary)
	}
}

func exportVectors(ctx context.Context, collectionName string) {
	cfg := loadConfig()
	vectors := openVectors(cfg)

	count, err := vectors.Count(collectionName)
	if err != nil {
		log.Fatal().Err(err).Str("collection", collectionName).Msg("Error reading collection")
	}
	if err := vectors.Export(ctx, collectionName); err != nil {
		log.Fatal().Err(err).Str("collection", collectionName).Msg("Error exporting collection")
	}
	log.Info().Str("collection", collectionName).Int("points", count).Msg("Exported collection snapshot")
}

func restoreVectors(ctx context.Context, filePath string) {
	cfg := loadConfig()
	vectors := openVectors(cfg)

	if err := vectors.Import(ctx, filePath); err != nil {
		log.Fatal().Err(err).Str("file", filePath).Msg("Error restoring snapshot")
	}
	log.Info().Str("file", filePath).Msg("Restored collection snapshot")
}

func searchDocuments(ctx context.Context, query string) {
	cfg := loadConfig()
	vectors := openVectors(cfg)
	embedder := newEmbedder(cfg)

	service := ingest.NewService(chunker.New(cfg.Chunker), embedder, vectors)
	results, err := service.SearchDocuments(ctx, query, 5)
	if err != nil {
		log.Fatal().Err(err).Msg("Error searching documents")
	}

	for _, result := range results {
		fmt.Printf("[%.3f] %s (page %s, clause %s)\n%s\n\n",
			result.Similarity,
			result.Metadata["filename"],
			result.Metadata["page"],
			result.Metadata["clause_number"],
			result.Content)
	}
}
