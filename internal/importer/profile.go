package importer

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// ProfileFile is the YAML seed format for registering a company profile,
// its capabilities, past wins and search preferences in one go.
type ProfileFile struct {
	FirmID       string `yaml:"firm_id"`
	CompanyName  string `yaml:"company_name"`
	Description  string `yaml:"description"`
	Capabilities []struct {
		Text            string `yaml:"text"`
		Category        string `yaml:"category"`
		YearsExperience int    `yaml:"years_experience"`
	} `yaml:"capabilities"`
	PastWins []struct {
		ContractTitle string  `yaml:"contract_title"`
		BuyerName     string  `yaml:"buyer_name"`
		ContractValue float64 `yaml:"contract_value"`
		AwardDate     string  `yaml:"award_date"`
	} `yaml:"past_wins"`
	Preferences *struct {
		MinContractValue   float64  `yaml:"min_contract_value"`
		MaxContractValue   float64  `yaml:"max_contract_value"`
		PreferredRegions   []string `yaml:"preferred_regions"`
		ExcludedCategories []string `yaml:"excluded_categories"`
		Keywords           []string `yaml:"keywords"`
	} `yaml:"preferences"`
}

// ParseProfileFile reads a company profile seed file
func ParseProfileFile(filePath string) (*ProfileFile, error) {
	data, err := os.ReadFile(filePath)
	if err != nil {
		return nil, err
	}
	var profile ProfileFile
	if err := yaml.Unmarshal(data, &profile); err != nil {
		return nil, fmt.Errorf("failed to parse profile file: %w", err)
	}
	if profile.FirmID == "" || profile.CompanyName == "" {
		return nil, fmt.Errorf("profile file must set firm_id and company_name")
	}
	return &profile, nil
}
