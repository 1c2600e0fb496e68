// pkg/scenarios/registry.go

// Package scenarios loads and validates the scenario catalog the
// pipeline scores against. The catalog is read once at startup and is
// immutable afterwards.
package scenarios

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/xeipuuv/gojsonschema"

	commonerrors "assessment-engine/internal/common/errors"
	"assessment-engine/internal/common/logger"
	"assessment-engine/internal/models"
)

// Registry holds the validated, ordered scenario catalog. Definition
// order fixes report question numbering.
type Registry struct {
	definitions []models.ScenarioDefinition
	bySituation map[string]int
	logger      logger.Logger
}

// Load reads the scenario document from path and validates it.
func Load(path string, log logger.Logger) (*Registry, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read scenarios file %s: %w", path, err)
	}
	return Parse(data, log)
}

// Parse validates raw JSON against the scenario schema and builds the
// registry. Recoverable problems (missing rationale, duplicate
// situation text) are logged with defaults substituted; structural
// schema violations reject the document.
func Parse(data []byte, log logger.Logger) (*Registry, error) {
	schemaLoader := gojsonschema.NewStringLoader(scenarioSchema)
	documentLoader := gojsonschema.NewBytesLoader(data)

	result, err := gojsonschema.Validate(schemaLoader, documentLoader)
	if err != nil {
		return nil, commonerrors.NewScenarioConfigInvalidError(err.Error())
	}
	if !result.Valid() {
		errs := make([]string, len(result.Errors()))
		for i, desc := range result.Errors() {
			errs[i] = desc.String()
		}
		return nil, commonerrors.NewScenarioConfigInvalidError(fmt.Sprintf("%v", errs))
	}

	var definitions []models.ScenarioDefinition
	if err := json.Unmarshal(data, &definitions); err != nil {
		return nil, commonerrors.NewScenarioConfigInvalidError(err.Error())
	}

	registry := &Registry{
		bySituation: make(map[string]int),
		logger:      log.With(map[string]interface{}{"component": "scenario-registry"}),
	}

	for _, def := range definitions {
		if _, exists := registry.bySituation[def.Situation]; exists {
			registry.logger.Warn("duplicate scenario situation, keeping first occurrence", map[string]interface{}{
				"warning":   "DATA_INTEGRITY_WARNING",
				"situation": def.Situation,
			})
			continue
		}
		if len(def.Competencies) == 0 {
			registry.logger.Warn("scenario lists no competencies", map[string]interface{}{
				"warning":   "DATA_INTEGRITY_WARNING",
				"situation": def.Situation,
			})
		}
		registry.bySituation[def.Situation] = len(registry.definitions)
		registry.definitions = append(registry.definitions, def)
	}

	if len(registry.definitions) == 0 {
		return nil, commonerrors.NewScenarioConfigInvalidError("scenario document contains no scenarios")
	}

	return registry, nil
}

// All returns the catalog in definition order.
func (r *Registry) All() []models.ScenarioDefinition {
	out := make([]models.ScenarioDefinition, len(r.definitions))
	copy(out, r.definitions)
	return out
}

// FindBySituation returns the definition whose situation text matches
// exactly, or nil.
func (r *Registry) FindBySituation(situation string) *models.ScenarioDefinition {
	idx, ok := r.bySituation[situation]
	if !ok {
		return nil
	}
	def := r.definitions[idx]
	return &def
}

// Len returns the number of scenarios in the catalog.
func (r *Registry) Len() int {
	return len(r.definitions)
}
