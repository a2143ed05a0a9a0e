package library_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/AntonStoeckl/library-lending-go/library"
)

func Test_ConsistencyLevel_FromContext(t *testing.T) {
	ctx := context.Background()

	assert.Equal(t, library.StrongConsistency, library.GetConsistencyLevel(ctx))
	assert.Equal(t, library.EventualConsistency, library.GetConsistencyLevel(library.WithEventualConsistency(ctx)))
	assert.Equal(t,
		library.StrongConsistency,
		library.GetConsistencyLevel(library.WithStrongConsistency(library.WithEventualConsistency(ctx))),
	)
}
