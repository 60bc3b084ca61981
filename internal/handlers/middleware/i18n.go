package middleware

import (
	"sort"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/rafabene/avantpro-accounts/internal/infrastructure/i18n"
)

const (
	// LanguageContextKey é a chave usada para armazenar o idioma no contexto do Gin
	LanguageContextKey = "language"
	// I18nServiceContextKey é a chave usada para armazenar o serviço i18n no contexto
	I18nServiceContextKey = "i18n_service"
)

// I18nMiddleware gerencia a detecção de idioma nas requisições
type I18nMiddleware struct {
	i18nService *i18n.Service
}

// NewI18nMiddleware cria um novo middleware de i18n
func NewI18nMiddleware(i18nService *i18n.Service) *I18nMiddleware {
	return &I18nMiddleware{
		i18nService: i18nService,
	}
}

// DetectLanguage detecta e configura o idioma da requisição
// Prioridade:
// 1. Query parameter ?lang=pt-BR (override explícito)
// 2. Accept-Language header, respeitando os pesos q
// 3. Idioma padrão (fallback)
func (m *I18nMiddleware) DetectLanguage() gin.HandlerFunc {
	return func(c *gin.Context) {
		var lang string

		if queryLang := c.Query("lang"); queryLang != "" && m.i18nService.IsLanguageSupported(queryLang) {
			lang = queryLang
		}

		if lang == "" {
			lang = m.parseAcceptLanguage(c.GetHeader("Accept-Language"))
		}

		if lang == "" {
			lang = m.i18nService.GetDefaultLanguage()
		}

		c.Set(LanguageContextKey, lang)
		c.Set(I18nServiceContextKey, m.i18nService)
		c.Header("Content-Language", lang)

		c.Next()
	}
}

type weightedLanguage struct {
	tag    string
	weight float64
}

// parseAcceptLanguage analisa o header Accept-Language e retorna o melhor idioma suportado
// Exemplo: "en;q=0.5,pt-BR,pt;q=0.9" -> "pt-BR"
func (m *I18nMiddleware) parseAcceptLanguage(acceptLang string) string {
	if acceptLang == "" {
		return ""
	}

	var languages []weightedLanguage
	for _, part := range strings.Split(acceptLang, ",") {
		tag, weight := parseLanguageRange(part)
		if tag == "" || weight <= 0 {
			continue
		}
		languages = append(languages, weightedLanguage{tag: tag, weight: weight})
	}

	// Ordem estável: empates mantêm a ordem do header
	sort.SliceStable(languages, func(i, j int) bool {
		return languages[i].weight > languages[j].weight
	})

	for _, l := range languages {
		if m.i18nService.IsLanguageSupported(l.tag) {
			return l.tag
		}

		// Verificar variação sem região (pt-BR -> pt)
		if idx := strings.Index(l.tag, "-"); idx != -1 {
			if base := l.tag[:idx]; m.i18nService.IsLanguageSupported(base) {
				return base
			}
		}
	}

	return ""
}

// parseLanguageRange separa "pt-BR;q=0.8" em ("pt-BR", 0.8); sem q o peso é 1
func parseLanguageRange(part string) (string, float64) {
	fields := strings.Split(strings.TrimSpace(part), ";")
	tag := strings.TrimSpace(fields[0])
	weight := 1.0

	for _, param := range fields[1:] {
		param = strings.TrimSpace(param)
		if !strings.HasPrefix(param, "q=") {
			continue
		}
		q, err := strconv.ParseFloat(strings.TrimPrefix(param, "q="), 64)
		if err != nil {
			return tag, 0
		}
		weight = q
	}

	return tag, weight
}
