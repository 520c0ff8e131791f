package scene

import (
	"errors"
	"fmt"

	"github.com/go-gl/mathgl/mgl32"
	"go.uber.org/multierr"

	"github.com/Faultbox/oglrenderer/internal/engine/model"
	"github.com/Faultbox/oglrenderer/internal/engine/shader"
)

// ErrOrphanObject reports a scene object without a model.
var ErrOrphanObject = errors.New("scene object has no model")

// Batch is every visible instance of one model for a single instanced draw.
type Batch struct {
	Model      *model.Model
	Transforms []mgl32.Mat4
}

// BuildBatches groups visible objects by model, in the order each model is
// first seen. Objects without a model are skipped and each one is reported
// in the returned error, hidden or not. The error never stops the grouping.
func BuildBatches(objects []*Object) ([]Batch, error) {
	var (
		batches []Batch
		index   = make(map[*model.Model]int)
		errs    error
	)
	for _, o := range objects {
		if o == nil {
			continue
		}
		if o.Model == nil {
			errs = multierr.Append(errs, fmt.Errorf("%w: %q", ErrOrphanObject, o.Name))
			continue
		}
		if !o.Visible {
			continue
		}
		i, ok := index[o.Model]
		if !ok {
			i = len(batches)
			index[o.Model] = i
			batches = append(batches, Batch{Model: o.Model})
		}
		batches[i].Transforms = append(batches[i].Transforms, o.Transform())
	}
	return batches, errs
}

// Flush uploads each batch's transforms into its model's instance buffer
// and draws the model once with u bound.
func Flush(u shader.Uniforms, batches []Batch) {
	for _, b := range batches {
		if len(b.Transforms) == 0 || b.Model == nil {
			continue
		}
		b.Model.SetInstances(b.Transforms)
		b.Model.Draw(u, len(b.Transforms))
	}
}

// Instances counts the transforms across batches.
func Instances(batches []Batch) int {
	n := 0
	for _, b := range batches {
		n += len(b.Transforms)
	}
	return n
}
