package main

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func run(t *testing.T, args ...string) (stdout, stderr string, err error) {
	t.Helper()
	t.Setenv("TRANSLATION_PROVIDER", "none")
	t.Setenv("REDIS_URL", "")
	t.Setenv("DATABASE_URL", "")
	t.Setenv("DB_URL", "")
	t.Setenv("EXCHANGE_RATES", "")

	var out, errOut bytes.Buffer
	cmd := newRootCmd(&out, &errOut)
	cmd.SetArgs(append([]string{"--env-file", ""}, args...))
	err = cmd.Execute()
	return out.String(), errOut.String(), err
}

const productsYAML = `
- sku: CAM-1
  titleEn: Vintage camera
  descriptionEn: Mint condition
  priceJpy: "30000"
  stock: 2
  brand: Nikon
  category: Cameras
  condition: Used
  imageUrls:
    - https://cdn.example.com/cam-1/1.jpg
    - https://cdn.example.com/cam-1/2.jpg
- sku: CAM-2
  titleEn: Camera without photos
  descriptionEn: Body only
  priceJpy: "12000"
  stock: 1
`

func writeInput(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestPlatformsCommand(t *testing.T) {
	out, _, err := run(t, "platforms")
	require.NoError(t, err)

	lines := strings.Split(strings.TrimSpace(out), "\n")
	require.Len(t, lines, 10)
	assert.True(t, strings.HasPrefix(lines[0], "PLATFORM"))
	assert.Contains(t, out, "amazon_jp")
	assert.Contains(t, out, "KRW")
}

func TestFieldsCommand(t *testing.T) {
	out, _, err := run(t, "fields", "ebay")
	require.NoError(t, err)
	assert.Contains(t, out, "condition")
	assert.Contains(t, out, "New,Used,Refurbished")

	_, _, err = run(t, "fields", "etsy")
	assert.Error(t, err)

	_, _, err = run(t, "fields")
	assert.Error(t, err)
}

func TestSchemaCommand(t *testing.T) {
	out, _, err := run(t, "schema")
	require.NoError(t, err)
	assert.Contains(t, out, "products_master")
}

func TestExportCommand_WritesFile(t *testing.T) {
	input := writeInput(t, "products.yaml", productsYAML)
	outDir := filepath.Join(t.TempDir(), "out")

	out, stderr, err := run(t, "export", "--platform", "shopify", "--input", input, "--out", outDir)
	require.NoError(t, err)
	assert.Contains(t, out, "1 exported, 1 skipped")
	assert.Contains(t, stderr, "skipped CAM-2")

	entries, err := os.ReadDir(outDir)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.True(t, strings.HasPrefix(entries[0].Name(), "shopify_products_1_"))

	data, err := os.ReadFile(filepath.Join(outDir, entries[0].Name()))
	require.NoError(t, err)
	require.True(t, bytes.HasPrefix(data, []byte{0xEF, 0xBB, 0xBF}))

	lines := strings.Split(string(data[3:]), "\n")
	require.Len(t, lines, 2)
	assert.True(t, strings.HasPrefix(lines[0], "Handle,Title,"))
	assert.True(t, strings.HasPrefix(lines[1], "vintage-camera,Vintage camera,"))
}

func TestExportCommand_StdoutJSON(t *testing.T) {
	input := writeInput(t, "products.json", `[{"sku":"CAM-1","titleEn":"Camera","descriptionEn":"Body","priceJpy":"30000","stock":1,"category":"Cameras","condition":"New","imageUrls":["https://cdn.example.com/a.jpg"]}]`)

	out, _, err := run(t, "export", "-p", "ebay", "-i", input, "-o", "-", "--no-headers")
	require.NoError(t, err)

	body := strings.TrimPrefix(out, "\ufeff")
	require.NotEqual(t, out, body, "missing BOM")
	assert.NotContains(t, body, "\n")
	assert.True(t, strings.HasPrefix(body, "Add,CAM-1,Camera,Body,Cameras,200.00,1,New,https://cdn.example.com/a.jpg"))
}

func TestExportCommand_Errors(t *testing.T) {
	input := writeInput(t, "products.yaml", productsYAML)

	tests := []struct {
		name string
		args []string
	}{
		{"missing platform flag", []string{"export", "--input", input}},
		{"unknown platform", []string{"export", "--platform", "etsy", "--input", input}},
		{"missing file", []string{"export", "--platform", "ebay", "--input", filepath.Join(t.TempDir(), "none.json")}},
		{"empty file", []string{"export", "--platform", "ebay", "--input", writeInput(t, "empty.json", "[]")}},
		{"malformed json", []string{"export", "--platform", "ebay", "--input", writeInput(t, "bad.json", "{")}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, _, err := run(t, tt.args...)
			assert.Error(t, err)
		})
	}
}
