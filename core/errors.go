package core

import (
	"errors"
	"fmt"

	"github.com/cecompare/cecompare/schema"
)

// ErrMalformedDataset matches every *MalformedDatasetError via errors.Is.
var ErrMalformedDataset = errors.New("malformed dataset")

const reasonNoResults = "no results produced"

// MalformedDatasetError describes why an engine dataset cannot be compared.
type MalformedDatasetError struct {
	Side     schema.Side
	Group    string
	Endpoint string
	Reason   string
}

func (e *MalformedDatasetError) Error() string {
	msg := "malformed dataset"
	if e.Side != "" {
		msg = fmt.Sprintf("malformed %s dataset", e.Side)
	}
	switch {
	case e.Endpoint != "":
		return fmt.Sprintf("%s: endpoint %s@%s: %s", msg, e.Endpoint, e.Group, e.Reason)
	case e.Group != "":
		return fmt.Sprintf("%s: group %s: %s", msg, e.Group, e.Reason)
	default:
		return fmt.Sprintf("%s: %s", msg, e.Reason)
	}
}

// Is makes errors.Is(err, ErrMalformedDataset) hold.
func (e *MalformedDatasetError) Is(target error) bool {
	return target == ErrMalformedDataset
}

// withSide tags a malformed dataset error with the engine it came from.
func withSide(err error, side schema.Side) error {
	var mde *MalformedDatasetError
	if errors.As(err, &mde) && mde.Side == "" {
		mde.Side = side
	}
	return err
}
