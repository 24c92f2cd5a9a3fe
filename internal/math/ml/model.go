package ml

import (
	"errors"
)

const (
	SVM        = "svm"
	Regression = "regression"
	KMeansKind = "kmeans"
)

var (
	// ErrDimensionMismatch is returned when the dimension of the model and the data do not match.
	ErrDimensionMismatch = errors.New("dimension mismatch")
	// ErrEmptyDataset is returned when a trainer needs data points that the dataset does not have.
	ErrEmptyDataset = errors.New("empty dataset")
	// ErrInvalidClusters is returned for an invalid number of clusters or initial means.
	ErrInvalidClusters = errors.New("invalid clusters")
	// ErrInvalidModel is returned for an invalid model dimension or item count.
	ErrInvalidModel = errors.New("invalid model")
)

// Example is a labelled training record.
type Example struct {
	Label    float64   `json:"label"`
	Features []float64 `json:"features"`
}
