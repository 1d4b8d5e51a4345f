package matching

import (
	"context"

	"github.com/Gobusters/ectologger"

	"github.com/AngelMagaquian/laintapp-api/pkg/models"
	"github.com/AngelMagaquian/laintapp-api/pkg/providers"
	"github.com/AngelMagaquian/laintapp-api/pkg/tracing"
)

// EngineConfig contains configuration for the match engine.
type EngineConfig struct {
	// StrictExclusivity makes the scan skip provider rows already claimed
	// earlier in the same pass. When false (the historical behavior), a
	// claimed row can still be scored and referenced as a later row's best
	// match; it just cannot be claimed twice.
	StrictExclusivity bool
	// WalletCardTypes overrides the digital-wallet allow-list.
	WalletCardTypes []string
}

// DefaultEngineConfig returns the production defaults.
func DefaultEngineConfig() EngineConfig {
	return EngineConfig{StrictExclusivity: false}
}

// Engine runs matching passes. It holds no per-pass state; each call to
// Process is a pure function of its two input batches.
type Engine struct {
	logger ectologger.Logger
	table  *providers.Table
	config EngineConfig
}

// NewEngine creates a match engine.
func NewEngine(logger ectologger.Logger, config EngineConfig) *Engine {
	return &Engine{
		logger: logger,
		table:  providers.NewTable(config.WalletCardTypes),
		config: config,
	}
}

// ProcessResult is the complete outcome of one matching pass.
type ProcessResult struct {
	// MatchingValues has one entry per internal row, in input order.
	MatchingValues []models.MatchResult
	// NotMatching are the provider rows never claimed during the pass.
	NotMatching []models.Record
	// NotMatchingXrp are unmatched internal rows, shaped for the manual
	// review store with provider_name "xrp".
	NotMatchingXrp []models.Record
}

// Process matches every internal row against the provider batch. For each
// internal row, in input order, every provider row is scored and the
// highest tier wins; ties keep the earliest-scanned candidate. A provider
// row is claimed only after the row's full scan, so under the default
// lenient exclusivity two internal rows may report the same best match
// while only the first claim counts toward the unmatched partition.
func (e *Engine) Process(ctx context.Context, xrpItems, providerItems []models.Record) ProcessResult {
	ctx, span := tracing.StartSpan(ctx, "matching.Engine.Process")
	defer span.End()

	log := e.logger.WithContext(ctx).WithFields(map[string]any{
		"xrp_count":      len(xrpItems),
		"provider_count": len(providerItems),
	})
	log.Debug("Starting matching pass")

	usedProviders := make(map[int]struct{}, len(providerItems))
	results := make([]models.MatchResult, 0, len(xrpItems))
	notMatchingXrp := make([]models.Record, 0)

	for index, xrpItem := range xrpItems {
		var bestMatch models.Record
		bestLevel := models.MatchLevelRed
		var matchedFields []string
		bestMatchIndex := -1

		for i, providerItem := range providerItems {
			if e.config.StrictExclusivity {
				if _, claimed := usedProviders[i]; claimed {
					continue
				}
			}

			rules := e.table.Resolve(providerItem.ProviderName())
			score := ScorePair(xrpItem, providerItem, rules, e.table)

			if score.Level.Weight() > bestLevel.Weight() {
				bestMatch = providerItem
				bestLevel = score.Level
				matchedFields = score.MatchedFields
				bestMatchIndex = i
			}
		}

		if bestMatchIndex != -1 {
			usedProviders[bestMatchIndex] = struct{}{}
		} else {
			notMatchingXrp = append(notMatchingXrp, models.Record{
				"original_data":    map[string]any(xrpItem),
				"provider_name":    "xrp",
				"file_date":        xrpItem.StrTrim("file_date"),
				"transaction_type": xrpItem.TransactionType(),
			})
		}

		if matchedFields == nil {
			matchedFields = []string{}
		}
		results = append(results, models.MatchResult{
			ID:              index,
			Xrp:             xrpItem,
			Provider:        bestMatch,
			MatchLevel:      bestLevel,
			MatchedFields:   matchedFields,
			Status:          models.MatchStatusPending,
			TransactionType: xrpItem.TransactionType(),
		})
	}

	notMatching := make([]models.Record, 0)
	for i, providerItem := range providerItems {
		if _, claimed := usedProviders[i]; !claimed {
			notMatching = append(notMatching, providerItem)
		}
	}

	log.WithFields(map[string]any{
		"matched":            len(providerItems) - len(notMatching),
		"unmatched_provider": len(notMatching),
		"unmatched_xrp":      len(notMatchingXrp),
	}).Debug("Matching pass complete")

	return ProcessResult{
		MatchingValues: results,
		NotMatching:    notMatching,
		NotMatchingXrp: notMatchingXrp,
	}
}
