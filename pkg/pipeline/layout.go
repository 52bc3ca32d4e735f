package pipeline

import (
	"github.com/matzehuels/annoview/pkg/fonts"
	"github.com/matzehuels/annoview/pkg/layout"
	"github.com/matzehuels/annoview/pkg/model"
)

// GenerateLayout builds a fresh model from doc and runs one layout pass.
// Warnings collected while building the model are carried on the layout.
func GenerateLayout(doc *model.Document, m fonts.Measurer, opts Options) (*layout.Layout, error) {
	md, err := model.Build(doc)
	if err != nil {
		return nil, err
	}
	return layout.Build(md, layout.WithParams(opts.LayoutParams()), layout.WithMeasurer(m))
}
