package gbdt

import (
	"encoding/json"
	"fmt"
	"os"
)

// LoadModelPackage reads a JSON-encoded ModelPackage from path and
// verifies its integrity before returning it. A failure at either
// step is fatal at startup, never recoverable mid-round.
func LoadModelPackage(path string) (ModelPackage, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return ModelPackage{}, fmt.Errorf("gbdt: read model package: %w", err)
	}
	var pkg ModelPackage
	if err := json.Unmarshal(data, &pkg); err != nil {
		return ModelPackage{}, fmt.Errorf("gbdt: parse model package: %w", err)
	}
	if err := pkg.VerifyIntegrity(); err != nil {
		return ModelPackage{}, fmt.Errorf("gbdt: model package integrity: %w", err)
	}
	return pkg, nil
}
