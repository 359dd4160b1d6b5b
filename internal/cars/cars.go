package cars

import (
	"embed"
	"encoding/json"
	"fmt"
	"io/fs"
	"os"

	"github.com/go-playground/validator/v10"
)

// DefaultFixture is the name of the bundled fixture within [Fixtures].
const DefaultFixture = "testdata/cars.json"

// Fixtures holds the bundled car fixtures.
//
//go:embed testdata/cars.json
var Fixtures embed.FS

// Car is a single fixture record.
//
// ID is empty until the car has been sent and is assigned the message id.
type Car struct {
	Detail map[string]any `json:"car detail" validate:"required,min=1"`
	ID     string         `json:"id,omitempty"`
}

var validate = validator.New(validator.WithRequiredStructEnabled())

// Load reads a fixture; an empty path reads the bundled default.
func Load(path string) ([]Car, error) {
	if path == "" {
		return LoadFS(Fixtures, DefaultFixture)
	}
	return loadFile(path)
}

func loadFile(path string) ([]Car, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("cars; unable to open fixture: %w", err)
	}
	defer f.Close()
	return decode(path, f)
}

// LoadFS reads a fixture from a filesystem.
func LoadFS(fsys fs.FS, name string) ([]Car, error) {
	f, err := fsys.Open(name)
	if err != nil {
		return nil, fmt.Errorf("cars; unable to open fixture: %w", err)
	}
	defer f.Close()
	return decode(name, f)
}

func decode(name string, f fs.File) ([]Car, error) {
	var output []Car
	if err := json.NewDecoder(f).Decode(&output); err != nil {
		return nil, fmt.Errorf("cars; unable to decode fixture %s: %w", name, err)
	}
	for index, car := range output {
		if err := validate.Struct(car); err != nil {
			return nil, fmt.Errorf("cars; invalid record %d in fixture %s: %w", index, name, err)
		}
	}
	return output, nil
}
