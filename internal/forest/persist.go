package forest

import (
	"encoding/gob"
	"fmt"
	"os"
	"path/filepath"
	"slices"

	"github.com/verbalis/voicedetect-go/internal/errors"
)

// artifactVersion is bumped whenever the serialized layout changes; loads of
// a different version fail rather than guess.
const artifactVersion = 1

// artifactV1 is the single serialized blob holding everything inference
// needs. Decoding is all-or-nothing: a partial or corrupt file yields an
// error, never a half-populated model.
type artifactV1 struct {
	Version int
	Forest  *Forest
}

// Save writes the trained ensemble, feature names, class names and trained
// flag to path as one gob artifact. The file is written to a temp name and
// renamed so a crash mid-write never leaves a truncated artifact behind.
func (f *Forest) Save(path string) error {
	if !f.Trained {
		return errors.Newf("cannot save untrained model").
			Component("forest").
			Category(errors.CategoryModelState).
			Build()
	}

	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return errors.New(fmt.Errorf("creating model directory: %w", err)).
				Component("forest").
				Category(errors.CategoryFileIO).
				Build()
		}
	}

	tmp := path + ".tmp"
	file, err := os.Create(tmp)
	if err != nil {
		return errors.New(fmt.Errorf("creating model file: %w", err)).
			Component("forest").
			Category(errors.CategoryFileIO).
			Build()
	}

	err = gob.NewEncoder(file).Encode(artifactV1{Version: artifactVersion, Forest: f})
	if closeErr := file.Close(); closeErr != nil && err == nil {
		err = closeErr
	}
	if err != nil {
		_ = os.Remove(tmp)
		return errors.New(fmt.Errorf("encoding model artifact: %w", err)).
			Component("forest").
			Category(errors.CategoryFileIO).
			Build()
	}

	if err := os.Rename(tmp, path); err != nil {
		_ = os.Remove(tmp)
		return errors.New(fmt.Errorf("writing model artifact: %w", err)).
			Component("forest").
			Category(errors.CategoryFileIO).
			Build()
	}
	return nil
}

// Load reads a model artifact and validates it against the feature schema the
// current extractor produces. Any mismatch fails loudly: feeding a model
// vectors in a different order would silently produce garbage predictions.
func Load(path string, expectedFeatureNames []string) (*Forest, error) {
	file, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, errors.Newf("model file not found: %s", path).
				Component("forest").
				Category(errors.CategoryModelLoad).
				Build()
		}
		return nil, errors.New(fmt.Errorf("opening model file: %w", err)).
			Component("forest").
			Category(errors.CategoryModelLoad).
			Build()
	}
	defer file.Close() //nolint:errcheck // read-only descriptor

	var art artifactV1
	if err := gob.NewDecoder(file).Decode(&art); err != nil {
		return nil, errors.New(fmt.Errorf("decoding model artifact: %w", err)).
			Component("forest").
			Category(errors.CategoryModelLoad).
			Build()
	}

	switch {
	case art.Version != artifactVersion:
		return nil, errors.Newf("unsupported model artifact version %d", art.Version).
			Component("forest").
			Category(errors.CategoryModelLoad).
			Build()
	case art.Forest == nil || !art.Forest.Trained || len(art.Forest.Trees) == 0:
		return nil, errors.Newf("model artifact does not contain a trained model").
			Component("forest").
			Category(errors.CategoryModelLoad).
			Build()
	case !slices.Equal(art.Forest.ClassNames, DefaultClassNames):
		return nil, errors.Newf("model artifact class names %v do not match expected %v",
			art.Forest.ClassNames, DefaultClassNames).
			Component("forest").
			Category(errors.CategoryModelLoad).
			Build()
	case expectedFeatureNames != nil && !slices.Equal(art.Forest.FeatureNames, expectedFeatureNames):
		return nil, errors.Newf("model feature schema does not match extractor schema: model has %d features, extractor produces %d",
			len(art.Forest.FeatureNames), len(expectedFeatureNames)).
			Component("forest").
			Category(errors.CategoryModelLoad).
			Build()
	}

	return art.Forest, nil
}
