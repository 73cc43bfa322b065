package catalog

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefault(t *testing.T) {
	c, err := Default()
	require.NoError(t, err)
	assert.NotEmpty(t, c.Products)
	assert.NotEmpty(t, c.Version)
}

func TestLoadCatalog(t *testing.T) {
	path := filepath.Join(t.TempDir(), "products.json")
	require.NoError(t, os.WriteFile(path, []byte(`{"version":"2","products":[{"product_id":"a","name":"셔츠","category":"패션","keywords":["여름"],"price":1000}]}`), 0o600))

	c, err := LoadCatalog(path)
	require.NoError(t, err)
	require.Len(t, c.Products, 1)
	assert.Equal(t, "셔츠", c.Products[0].Name)
	assert.Equal(t, 1000, c.Products[0].Price)
}

func TestLoadCatalog_Missing(t *testing.T) {
	_, err := LoadCatalog(filepath.Join(t.TempDir(), "nope.json"))
	assert.Error(t, err)
}

func TestParse_Invalid(t *testing.T) {
	tests := []struct {
		name string
		data string
	}{
		{"not json", `{`},
		{"missing id", `{"products":[{"name":"x"}]}`},
		{"missing name", `{"products":[{"product_id":"a"}]}`},
		{"duplicate id", `{"products":[{"product_id":"a","name":"x"},{"product_id":"a","name":"y"}]}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse([]byte(tt.data))
			assert.Error(t, err)
		})
	}
}

func TestProduct_Matches(t *testing.T) {
	p := Product{Name: "린넨 셔츠", Category: "패션", Keywords: []string{"여름", ""}}

	assert.True(t, p.Matches("셔츠"))
	assert.True(t, p.Matches("패션"))
	assert.True(t, p.Matches("여름"))
	assert.True(t, p.Matches("여름옷"))
	assert.False(t, p.Matches("가전"))
	assert.False(t, p.Matches("  "))
}

func fixedClock(t *testing.T) {
	t.Helper()
	prev := now
	now = func() time.Time { return time.Date(2024, 7, 1, 9, 0, 0, 0, time.UTC) }
	t.Cleanup(func() { now = prev })
}

func TestCatalog_Add(t *testing.T) {
	fixedClock(t)
	c := &Catalog{Version: "1"}

	require.NoError(t, c.Add(Product{ProductID: "a", Name: "셔츠"}))
	assert.Equal(t, "2024-07-01T09:00:00Z", c.LastUpdated)

	assert.Error(t, c.Add(Product{ProductID: "a", Name: "중복"}))
	assert.Error(t, c.Add(Product{ProductID: "", Name: "x"}))
	assert.Len(t, c.Products, 1)
}

func TestCatalog_Update(t *testing.T) {
	fixedClock(t)
	c := &Catalog{Products: []Product{{ProductID: "a", Name: "셔츠", Price: 1000}}}

	require.NoError(t, c.Update("a", "price", "2500"))
	require.NoError(t, c.Update("a", "keywords", "여름, 린넨,,"))
	p, ok := c.Find("a")
	require.True(t, ok)
	assert.Equal(t, 2500, p.Price)
	assert.Equal(t, []string{"여름", "린넨"}, p.Keywords)

	assert.Error(t, c.Update("a", "price", "abc"))
	assert.Error(t, c.Update("a", "price", "-1"))
	assert.Error(t, c.Update("a", "name", " "))
	assert.Error(t, c.Update("a", "colour", "red"))
	assert.Error(t, c.Update("missing", "price", "1"))
}

func TestCatalog_Remove(t *testing.T) {
	c := &Catalog{Products: []Product{{ProductID: "a", Name: "x"}, {ProductID: "b", Name: "y"}}}

	require.NoError(t, c.Remove("a"))
	require.Len(t, c.Products, 1)
	assert.Equal(t, "b", c.Products[0].ProductID)
	assert.Error(t, c.Remove("a"))
}

func TestSave_RoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "products.json")
	c, err := Default()
	require.NoError(t, err)

	require.NoError(t, Save(c, path))
	loaded, err := LoadCatalog(path)
	require.NoError(t, err)
	assert.Equal(t, c.Products, loaded.Products)
}

func TestSave_RejectsInvalid(t *testing.T) {
	path := filepath.Join(t.TempDir(), "products.json")
	c := &Catalog{Products: []Product{{ProductID: "a"}}}

	assert.Error(t, Save(c, path))
	_, err := os.Stat(path)
	assert.True(t, os.IsNotExist(err))
}
