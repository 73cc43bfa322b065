package mockserver

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/google/uuid"
	"github.com/samber/lo"

	"shopping-assistant/internal/common/logger"
	"shopping-assistant/internal/models"
	"shopping-assistant/pkg/catalog"
)

const (
	maxKeywords        = 3
	defaultPerKeyword  = 3
	keywordPunctuation = "?!.,~\"'()[]"
)

// Filler words that carry no product meaning.
var stopwords = map[string]struct{}{
	"추천": {}, "추천해줘": {}, "추천해": {}, "찾기": {}, "찾아줘": {}, "보기": {}, "보여줘": {},
	"상품": {}, "제품": {}, "알려줘": {}, "해줘": {}, "좀": {}, "주세요": {}, "있어": {}, "뭐": {},
	"the": {}, "a": {}, "an": {}, "for": {}, "me": {}, "please": {},
}

// Responder builds the assistant turn for a user message.
type Responder struct {
	catalog    Catalog
	perKeyword int
	logger     logger.Logger
}

func NewResponder(c Catalog, perKeyword int, log logger.Logger) *Responder {
	if perKeyword < 1 {
		perKeyword = defaultPerKeyword
	}
	return &Responder{catalog: c, perKeyword: perKeyword, logger: log}
}

// Respond searches the catalog once per keyword. The keyword's position is the
// rank of its products and of its recommendation text.
func (r *Responder) Respond(ctx context.Context, input string) (models.ChatTurn, error) {
	keywords := ExtractKeywords(input, maxKeywords)
	turn := models.ChatTurn{
		UserInput:   input,
		KeywordText: keywordText(keywords),
		Products:    []models.Product{},
		Recommend:   []models.Recommendation{},
	}

	for i, keyword := range keywords {
		rank := i + 1
		found, err := r.catalog.Search(ctx, keyword, r.perKeyword)
		if err != nil {
			return models.ChatTurn{}, err
		}

		turn.Products = append(turn.Products, lo.Map(found, func(p catalog.Product, _ int) models.Product {
			return toProduct(p, keyword, rank)
		})...)
		turn.Recommend = append(turn.Recommend, models.Recommendation{
			RecommendID:   models.StringOrNumber(uuid.NewString()),
			RecommendText: recommendText(keyword, found),
			Rank:          rank,
		})
	}

	r.logger.Debug("assistant turn built", map[string]interface{}{
		"keywords": keywords,
		"products": len(turn.Products),
	})
	return turn, nil
}

// ExtractKeywords returns up to limit distinct non-filler words of input in order.
func ExtractKeywords(input string, limit int) []string {
	words := lo.FilterMap(strings.Fields(input), func(w string, _ int) (string, bool) {
		w = strings.Trim(w, keywordPunctuation)
		if w == "" {
			return "", false
		}
		if _, skip := stopwords[strings.ToLower(w)]; skip {
			return "", false
		}
		return w, true
	})
	words = lo.Uniq(words)
	if len(words) > limit {
		words = words[:limit]
	}
	return words
}

// HighlightName appends the matched keyword in the backend's <b> markup.
func HighlightName(name, keyword string) string {
	return fmt.Sprintf("%s <b>%s</b>", name, keyword)
}

func toProduct(p catalog.Product, keyword string, rank int) models.Product {
	return models.Product{
		ProductID:    models.StringOrNumber(p.ProductID),
		ProductName:  HighlightName(p.Name, keyword),
		ProductLink:  p.Link,
		ProductPrice: models.StringOrNumber(strconv.Itoa(p.Price)),
		Rank:         rank,
		Image:        models.ProductImage{ImageURL: p.ImageURL},
	}
}

func keywordText(keywords []string) string {
	if len(keywords) == 0 {
		return "어떤 상품을 찾으시는지 조금 더 자세히 알려주세요."
	}
	quoted := lo.Map(keywords, func(k string, _ int) string { return "'" + k + "'" })
	return fmt.Sprintf("%s 키워드로 상품을 찾아봤어요.", strings.Join(quoted, ", "))
}

func recommendText(keyword string, found []catalog.Product) string {
	if len(found) == 0 {
		return fmt.Sprintf("'%s'에 맞는 상품을 찾지 못했어요. 다른 표현으로 다시 물어봐 주세요.", keyword)
	}
	cheapest := lo.MinBy(found, func(a, b catalog.Product) bool { return a.Price < b.Price })
	return fmt.Sprintf("'%s' 관련 상품 %d개를 골랐어요. 가장 부담 없는 가격은 %s입니다.", keyword, len(found), cheapest.Name)
}
