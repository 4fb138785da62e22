package service

import "github.com/Sanjana-Siddireddi/AI-Powered-Regulatory-Compliance-Checker-for-Contracts/model"

// exportWindow is how many of the most recent artifacts the export view considers.
const exportWindow = 4

// Export is one downloadable file of the export view.
type Export struct {
	Label string         `json:"label"`
	Item  model.Artifact `json:"artifact"`
}

// RecentExports returns the downloadable artifacts among the four most
// recently written ones in scope. Intermediate text extractions are skipped,
// so fewer than four may be returned.
func RecentExports(store *ArtifactStore, scope string) ([]Export, error) {
	all, err := store.List(scope, model.KindAny)
	if err != nil {
		return nil, err
	}
	if len(all) > exportWindow {
		all = all[:exportWindow]
	}

	exports := make([]Export, 0, len(all))
	for _, a := range all {
		if a.Kind == model.KindExtractedText {
			continue
		}
		exports = append(exports, Export{Label: a.Kind.Label(), Item: a})
	}
	return exports, nil
}
