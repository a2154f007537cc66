package s3

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestNewConnectionValidates(t *testing.T) {
	_, err := NewConnection(ConnectionInfo{Bucket: "b"})
	require.Error(t, err)
	_, err = NewConnection(ConnectionInfo{Endpoint: "localhost:9000"})
	require.Error(t, err)

	c, err := NewConnection(ConnectionInfo{Endpoint: "localhost:9000", Bucket: "loan-audit", Region: "us-east-1"})
	require.NoError(t, err)
	require.Equal(t, "loan-audit", c.Bucket)
	require.Equal(t, "us-east-1", c.Region)
}
