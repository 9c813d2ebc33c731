package core

// context.go
import "context"

// CtxKey — тип ключей для context.Context (чтобы избежать коллизий строк)
type CtxKey string

// CtxUser — имя вошедшего пользователя (кладётся в контекст middleware сессии)
const CtxUser CtxKey = "user"

// WithUser возвращает контекст с пользователем.
func WithUser(ctx context.Context, user string) context.Context {
	return context.WithValue(ctx, CtxUser, user)
}

// UserFromContext — пользователь из контекста или "".
func UserFromContext(ctx context.Context) string {
	user, _ := ctx.Value(CtxUser).(string)
	return user
}
