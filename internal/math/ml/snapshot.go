package ml

import (
	"fmt"

	"github.com/drakos74/free-ml/internal/data"
	"github.com/drakos74/free-ml/internal/storage"
)

// Snapshot is the persisted state of a trainer.
type Snapshot struct {
	Run     string      `json:"run"`
	Name    string      `json:"name"`
	Kind    string      `json:"kind"`
	Rounds  int         `json:"rounds"`
	Dim     int         `json:"dim"`
	K       int         `json:"k,omitempty"`
	N       int         `json:"n,omitempty"`
	Weights []float64   `json:"weights,omitempty"`
	Means   [][]float64 `json:"means,omitempty"`
	MSE     []float64   `json:"mse,omitempty"`
}

// Key is the storage key of the snapshot.
func (s Snapshot) Key() storage.Key {
	return SnapshotKey(s.Name, s.Kind)
}

// SnapshotKey is the storage key for the snapshot of the named trainer.
func SnapshotKey(name, kind string) storage.Key {
	return storage.Key{
		Pair:  name,
		Label: kind,
	}
}

// Snapshot captures the current state of the model.
func (lm *LinearModel) Snapshot() Snapshot {
	lm.mutex.RLock()
	defer lm.mutex.RUnlock()
	w := make([]float64, len(lm.w))
	copy(w, lm.w)
	return Snapshot{
		Run:     lm.run,
		Name:    lm.name,
		Kind:    lm.kind,
		Rounds:  lm.round,
		Dim:     lm.dim,
		N:       lm.n,
		Weights: w,
	}
}

// Snapshot captures the current state of the clustering.
func (km *KMeans) Snapshot() Snapshot {
	km.mutex.RLock()
	defer km.mutex.RUnlock()
	mse := make([]float64, len(km.mse))
	copy(mse, km.mse)
	return Snapshot{
		Run:    km.run,
		Name:   km.name,
		Kind:   KMeansKind,
		Rounds: km.round,
		Dim:    km.dim,
		K:      km.k,
		Means:  copyMeans(km.means),
		MSE:    mse,
	}
}

// Save stores the snapshot.
func Save(store storage.Persistence, s Snapshot) error {
	if err := store.Store(s.Key(), s); err != nil {
		return fmt.Errorf("could not store snapshot for '%s': %w", s.Name, err)
	}
	return nil
}

// Load loads the snapshot of the named trainer.
func Load(store storage.Persistence, name, kind string) (Snapshot, error) {
	var s Snapshot
	if err := store.Load(SnapshotKey(name, kind), &s); err != nil {
		return s, fmt.Errorf("could not load snapshot for '%s': %w", name, err)
	}
	return s, nil
}

// LoadLinearModel resumes a linear model from its snapshot.
func LoadLinearModel(ds *data.Dataset[Example], s Snapshot, gradient Gradient, opts ...Option) (*LinearModel, error) {
	if s.Weights == nil {
		return nil, fmt.Errorf("%w: snapshot '%s' has no weights", ErrInvalidModel, s.Name)
	}
	opts = append([]Option{WithName(s.Name), WithRun(s.Run)}, opts...)
	lm, err := NewLinearModel(s.Kind, ds, s.Dim, s.N, s.Weights, gradient, opts...)
	if err != nil {
		return nil, err
	}
	lm.round = s.Rounds
	return lm, nil
}

// LoadKMeans resumes a k-means trainer from its snapshot.
func LoadKMeans(ds *data.Dataset[[]float64], s Snapshot, opts ...Option) (*KMeans, error) {
	if s.Kind != KMeansKind {
		return nil, fmt.Errorf("%w: snapshot '%s' is of kind '%s'", ErrInvalidClusters, s.Name, s.Kind)
	}
	opts = append([]Option{WithName(s.Name), WithRun(s.Run)}, opts...)
	// means are nil until the first round has sampled them
	var means [][]float64
	if len(s.Means) > 0 {
		means = s.Means
	}
	k := s.K
	if k == 0 {
		k = len(s.Means)
	}
	km, err := NewKMeans(ds, k, means, opts...)
	if err != nil {
		return nil, err
	}
	km.round = s.Rounds
	if s.MSE != nil {
		km.mse = append(km.mse, s.MSE...)
	}
	return km, nil
}
