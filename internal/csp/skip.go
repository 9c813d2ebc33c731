package csp

// skip.go
import (
	"strings"

	"easycsp/internal/core"
)

// RequestContext — то, что пайплайну нужно знать о текущем запросе.
type RequestContext struct {
	IsAdmin         bool   // запрос в административную часть
	IsAuthenticated bool   // пользователь вошёл
	Path            string // путь без query-строки
}

// SkipHook получает решение «пропустить» и может его переопределить.
type SkipHook func(skip bool) bool

// SkipEvaluator решает, обрабатывать ли запрос вообще.
// Хуки регистрируются при старте и применяются по порядку:
// каждый получает результат предыдущего, последний определяет итог.
type SkipEvaluator struct {
	hooks []SkipHook
}

// NewSkipEvaluator создаёт оценщик с начальным набором хуков.
func NewSkipEvaluator(hooks ...SkipHook) *SkipEvaluator {
	e := &SkipEvaluator{}
	for _, h := range hooks {
		e.AddHook(h)
	}
	return e
}

// AddHook регистрирует хук. Не потокобезопасен: вызывать до начала обслуживания запросов.
func (e *SkipEvaluator) AddHook(h SkipHook) {
	if h != nil {
		e.hooks = append(e.hooks, h)
	}
}

// ShouldSkip — итоговое решение с учётом хуков.
func (e *SkipEvaluator) ShouldSkip(s Settings, rc RequestContext) bool {
	skip := Decide(s, rc)
	if e == nil {
		return skip
	}
	return e.applyHooks(skip)
}

// Decide — решение до хуков. Первое сработавшее правило выигрывает.
func Decide(s Settings, rc RequestContext) bool {
	switch {
	case !s.Enabled:
		return true
	case rc.IsAdmin:
		return true
	case rc.IsAuthenticated && !s.EnableForLoggedIn:
		return true
	case MatchesExcludedPath(rc.Path, s.ExcludedPathList()):
		return true
	}
	return false
}

// applyHooks: паника в любом хуке откатывает результат к решению до хуков.
func (e *SkipEvaluator) applyHooks(skip bool) (result bool) {
	result = skip
	defer func() {
		if rec := recover(); rec != nil {
			core.LogError("csp: паника в skip-хуке", map[string]interface{}{"panic": rec})
			result = skip
		}
	}()
	v := skip
	for _, h := range e.hooks {
		v = h(v)
	}
	return v
}

// MatchesExcludedPath: запись без * — точное совпадение, запись с * в конце — префикс.
// path сравнивается после отрезания query и fragment.
func MatchesExcludedPath(path string, patterns []string) bool {
	if i := strings.IndexAny(path, "?#"); i >= 0 {
		path = path[:i]
	}
	for _, p := range patterns {
		if prefix, ok := strings.CutSuffix(p, "*"); ok {
			if strings.HasPrefix(path, prefix) {
				return true
			}
			continue
		}
		if path == p {
			return true
		}
	}
	return false
}
