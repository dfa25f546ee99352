package ai

import (
	"embed"
	"fmt"
	"io/fs"
	"os"
	"sort"
	"strings"

	"go.uber.org/zap"
)

//go:embed prompts/*.txt
var embeddedPrompts embed.FS

// Prompt template names
const (
	PromptCropDiagnosis   = "crop_diagnosis"
	PromptPriceAdvice     = "price_advice"
	PromptWeatherAdvice   = "weather_advice"
	PromptSchemeCheck     = "scheme_eligibility"
	PromptLoanEligibility = "loan_eligibility"
	PromptInsuranceAdvice = "insurance_advice"
)

// PromptManager - Simple prompt loader over the embedded templates or an override directory
type PromptManager struct {
	fsys   fs.FS
	source string
}

// NewPromptManager creates a prompt manager. An empty dir selects the embedded prompts.
func NewPromptManager(dir string, logger *zap.Logger) *PromptManager {
	pm := &PromptManager{source: "embedded"}
	if dir != "" {
		pm.fsys = os.DirFS(dir)
		pm.source = dir
	} else {
		sub, err := fs.Sub(embeddedPrompts, "prompts")
		if err != nil {
			// embed patterns are fixed at build time
			panic(err)
		}
		pm.fsys = sub
	}
	if logger != nil {
		logger.Named("prompts").Debug("prompt manager initialized", zap.String("source", pm.source))
	}
	return pm
}

// LoadPrompt loads a prompt template by name
func (pm *PromptManager) LoadPrompt(name string) (string, error) {
	content, err := fs.ReadFile(pm.fsys, name+".txt")
	if err != nil {
		if os.IsNotExist(err) {
			return "", fmt.Errorf("prompt template not found: %s", name)
		}
		return "", fmt.Errorf("failed to load prompt %s: %w", name, err)
	}
	return string(content), nil
}

// RenderPrompt replaces {PLACEHOLDER} with values in a single pass, so
// placeholders inside substituted values are left alone
func (pm *PromptManager) RenderPrompt(name string, replacements map[string]string) (string, error) {
	template, err := pm.LoadPrompt(name)
	if err != nil {
		return "", err
	}

	pairs := make([]string, 0, len(replacements)*2)
	for placeholder, value := range replacements {
		pairs = append(pairs, "{"+placeholder+"}", value)
	}
	return strings.NewReplacer(pairs...).Replace(template), nil
}

// Names lists the available templates
func (pm *PromptManager) Names() ([]string, error) {
	matches, err := fs.Glob(pm.fsys, "*.txt")
	if err != nil {
		return nil, err
	}
	names := make([]string, 0, len(matches))
	for _, m := range matches {
		names = append(names, strings.TrimSuffix(m, ".txt"))
	}
	sort.Strings(names)
	return names, nil
}
