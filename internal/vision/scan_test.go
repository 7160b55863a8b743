package vision

import (
	"context"
	"os"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/bodul/strands/internal/config"
)

func TestParseRows(t *testing.T) {
	rows, err := ParseRows(`{"rows":["abc"," DEF "]}`, 2, 3)
	require.NoError(t, err)
	require.Equal(t, []string{"ABC", "DEF"}, rows)
}

func TestParseRowsRejects(t *testing.T) {
	for name, text := range map[string]string{
		"not json":    "ABC DEF",
		"row count":   `{"rows":["ABC"]}`,
		"row length":  `{"rows":["ABC","DE"]}`,
		"non letters": `{"rows":["ABC","D3F"]}`,
	} {
		t.Run(name, func(t *testing.T) {
			_, err := ParseRows(text, 2, 3)
			require.Error(t, err)
		})
	}
}

func TestScan(t *testing.T) {
	projectID := os.Getenv("GCP_PROJECT_ID")
	if projectID == "" {
		t.Skip("GCP_PROJECT_ID not set, skipping integration test")
	}

	ctx := context.Background()
	client, err := NewClient(ctx, config.Vision{Project: projectID})
	require.NoError(t, err)
	defer client.Close()

	imageData, err := os.ReadFile("testdata/board.png")
	if err != nil {
		t.Skipf("no sample board: %v", err)
	}

	rows, err := client.Scan(ctx, imageData, "image/png", 8, 6)
	require.NoError(t, err)
	t.Logf("Scanned board:\n%v", rows)
}

func TestNewClientRequiresProject(t *testing.T) {
	_, err := NewClient(context.Background(), config.Vision{Region: "europe-west1"})
	require.ErrorContains(t, err, "project is required")
}
