package csp

// processor.go
import (
	"easycsp/internal/core"
)

// HeaderSink — куда пайплайн пишет заголовок политики.
type HeaderSink interface {
	// HeadersSent — true, если заголовки ответа уже ушли клиенту.
	HeadersSent() bool
	SetHeader(name, value string)
}

// Processor — пайплайн: решение о пропуске -> nonce -> переписывание HTML -> заголовок.
// Собирается один раз при старте и используется всеми запросами; состояния между запросами нет.
type Processor struct {
	rewriter Rewriter
	skip     *SkipEvaluator
	nonce    NonceFunc
}

// Option настраивает Processor.
type Option func(*Processor)

// WithRewriter подменяет переписчик; nil означает «переписывание недоступно».
func WithRewriter(r Rewriter) Option { return func(p *Processor) { p.rewriter = r } }

// WithNonceFunc подменяет генератор nonce.
func WithNonceFunc(f NonceFunc) Option { return func(p *Processor) { p.nonce = f } }

// WithSkipEvaluator задаёт оценщик с зарегистрированными хуками.
func WithSkipEvaluator(e *SkipEvaluator) Option { return func(p *Processor) { p.skip = e } }

// NewProcessor — по умолчанию TagRewriter, NewNonce и оценщик без хуков.
func NewProcessor(opts ...Option) *Processor {
	p := &Processor{
		rewriter: TagRewriter{},
		skip:     NewSkipEvaluator(),
		nonce:    NewNonce,
	}
	for _, o := range opts {
		o(p)
	}
	return p
}

// Result — что произошло с документом.
type Result struct {
	HTML     string
	Outcome  Outcome
	Nonce    string // пусто, если документ не обрабатывался
	Injected int    // сколько тегов получили nonce
	Header   string // имя отправленного заголовка; пусто, если не отправлен
}

// Outcome — итог обработки для метрик и логов.
type Outcome string

const (
	OutcomeProcessed   Outcome = "processed"
	OutcomeSkipped     Outcome = "skipped"
	OutcomePassthrough Outcome = "passthrough"
)

// ProcessOutput возвращает документ с nonce (или исходный документ).
func (p *Processor) ProcessOutput(doc string, s Settings, rc RequestContext, sink HeaderSink) string {
	return p.Process(doc, s, rc, sink).HTML
}

// Process — то же, что ProcessOutput, но с подробностями.
// Ошибки не возвращаются: в худшем случае CSP на этом запросе не применён.
func (p *Processor) Process(doc string, s Settings, rc RequestContext, sink HeaderSink) Result {
	res := p.process(doc, s, rc, sink)
	observe(res)
	return res
}

func (p *Processor) process(doc string, s Settings, rc RequestContext, sink HeaderSink) Result {
	if doc == "" || p.rewriter == nil {
		return Result{HTML: doc, Outcome: OutcomePassthrough}
	}
	if p.skip.ShouldSkip(s, rc) {
		return Result{HTML: doc, Outcome: OutcomeSkipped}
	}

	nonce, err := p.nonce()
	if err != nil || nonce == "" {
		core.LogError("csp: не удалось сгенерировать nonce", map[string]interface{}{
			"error": errString(err),
			"path":  rc.Path,
		})
		return Result{HTML: doc, Outcome: OutcomePassthrough}
	}

	out, n := p.rewriter.Rewrite(doc, nonce, s.ProcessStyles)
	res := Result{HTML: out, Outcome: OutcomeProcessed, Nonce: nonce, Injected: n}

	// Заголовки уже ушли: отдаём размеченный HTML без заголовка.
	if sink == nil || sink.HeadersSent() {
		return res
	}
	res.Header = HeaderName(s.Mode)
	sink.SetHeader(res.Header, BuildHeaderValue(nonce, s))
	return res
}

func errString(err error) string {
	if err == nil {
		return "empty nonce"
	}
	return err.Error()
}
