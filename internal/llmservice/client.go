package llmservice

import (
	"context"
	"fmt"
	"strings"

	"github.com/rs/zerolog/log"
	"github.com/tmc/langchaingo/llms"
	"github.com/tmc/langchaingo/llms/openai"
	"github.com/tmc/langchaingo/schema"

	"contract-discovery/internal/config"
	"contract-discovery/internal/models"
)

// GenerateContent calls an OpenAI-compatible chat endpoint
func GenerateContent(ctx context.Context, llmConfig *config.LLMConfig, messages []llms.MessageContent) (*llms.ContentResponse, error) {
	log.Debug().Str("model", llmConfig.Model).Msg("Generating content")
	llm, err := openai.New(
		openai.WithBaseURL(llmConfig.BaseURL),
		openai.WithToken(strings.TrimPrefix(llmConfig.Key, "Bearer ")),
		openai.WithModel(llmConfig.Model),
	)
	if err != nil {
		return nil, err
	}
	return llm.GenerateContent(ctx, messages)
}

const matchSummaryPrompt = `You are a bid advisor for a company searching for public sector contracts.
Given the company profile and a matched contract notice, write a short plain-English
summary (3-4 sentences) of why this contract is worth pursuing and what the main
risks are. Do not invent details not present in the input.`

// SummarizeMatch produces a short narrative for a ranked match result
func SummarizeMatch(ctx context.Context, llmConfig *config.LLMConfig, profile models.CompanyProfile, matched models.MatchedContract) (string, error) {
	var input strings.Builder
	fmt.Fprintf(&input, "Company: %s\n", profile.CompanyName)
	for _, capability := range profile.Capabilities {
		fmt.Fprintf(&input, "Capability: %s\n", capability.Text)
	}
	fmt.Fprintf(&input, "\nContract: %s\nBuyer: %s\nValue: £%.0f\nRegion: %s\n",
		matched.Contract.Title, matched.Contract.BuyerName, matched.Contract.Value, matched.Contract.Region)
	fmt.Fprintf(&input, "Score: %.2f\n", matched.Result.TotalScore)
	for _, reason := range matched.Result.MatchReasons {
		fmt.Fprintf(&input, "Reason: %s\n", reason)
	}

	messages := []llms.MessageContent{
		llms.TextParts(schema.ChatMessageTypeSystem, matchSummaryPrompt),
		llms.TextParts(schema.ChatMessageTypeHuman, input.String()),
	}
	resp, err := GenerateContent(ctx, llmConfig, messages)
	if err != nil {
		return "", err
	}
	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("empty response from model")
	}
	return resp.Choices[0].Content, nil
}
