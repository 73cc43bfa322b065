package mockserver

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"shopping-assistant/internal/common/errors"
	"shopping-assistant/internal/common/logger"
	turnparser "shopping-assistant/internal/features/chat/turn-parser"
	"shopping-assistant/pkg/catalog"
)

type MockCatalog struct {
	mock.Mock
}

func (m *MockCatalog) Search(ctx context.Context, keyword string, limit int) ([]catalog.Product, error) {
	args := m.Called(ctx, keyword, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]catalog.Product), args.Error(1)
}

func (m *MockCatalog) Get(ctx context.Context, productID string) (catalog.Product, error) {
	args := m.Called(ctx, productID)
	return args.Get(0).(catalog.Product), args.Error(1)
}

func TestExtractKeywords(t *testing.T) {
	tests := []struct {
		input string
		want  []string
	}{
		{"패션 상품 추천", []string{"패션"}},
		{"여름 셔츠 추천해줘!", []string{"여름", "셔츠"}},
		{"셔츠 셔츠 바지 신발 모자", []string{"셔츠", "바지", "신발"}},
		{"추천 좀", []string{}},
		{"", []string{}},
	}
	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got := ExtractKeywords(tt.input, maxKeywords)
			assert.Equal(t, tt.want, append([]string{}, got...))
		})
	}
}

func TestResponder_Respond(t *testing.T) {
	ctx := context.Background()
	r := NewResponder(NewMemoryCatalog(seedCatalog()), 2, logger.NewTestLogger(t))

	turn, err := r.Respond(ctx, "셔츠 청소기 자동차")
	require.NoError(t, err)

	assert.Equal(t, "셔츠 청소기 자동차", turn.UserInput)
	assert.Contains(t, turn.KeywordText, "'셔츠', '청소기', '자동차'")
	require.Len(t, turn.Products, 3)
	require.Len(t, turn.Recommend, 3)

	grouped := turnparser.GroupProducts(turn.Products)
	assert.Len(t, grouped[1], 2)
	assert.Len(t, grouped[2], 1)
	assert.Empty(t, grouped[3])

	assert.Equal(t, "린넨 셔츠 <b>셔츠</b>", turn.Products[0].ProductName)
	assert.Equal(t, "린넨 셔츠", turnparser.CleanProductName(turn.Products[0].ProductName))
	assert.Equal(t, "39000", turn.Products[0].ProductPrice.String())

	recommend := turnparser.GroupRecommendations(turn.Recommend)
	assert.Contains(t, recommend[1], "옥스퍼드 셔츠", "names the cheapest match")
	assert.Contains(t, recommend[3], "찾지 못했어요")
}

func TestResponder_NoKeywords(t *testing.T) {
	c := new(MockCatalog)
	r := NewResponder(c, 0, logger.NewNoOpLogger())

	turn, err := r.Respond(context.Background(), "추천 좀")
	require.NoError(t, err)
	assert.Empty(t, turn.Products)
	assert.Empty(t, turn.Recommend)
	assert.NotEmpty(t, turn.KeywordText)
	c.AssertNotCalled(t, "Search", mock.Anything, mock.Anything, mock.Anything)
}

func TestResponder_SearchError(t *testing.T) {
	c := new(MockCatalog)
	c.On("Search", mock.Anything, "셔츠", defaultPerKeyword).
		Return(nil, errors.NewSearchQueryFailedError("products", assert.AnError))
	r := NewResponder(c, 0, logger.NewNoOpLogger())

	_, err := r.Respond(context.Background(), "셔츠")
	assert.True(t, errors.HasCode(err, errors.ErrCodeSearchQueryFailed))
	c.AssertExpectations(t)
}
