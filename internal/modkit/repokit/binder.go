package repokit

// Binder binds a domain repo to a Queryer: the pool outside a transaction,
// the tx handle inside one
type Binder[T any] interface {
	Bind(Queryer) T
}

// BindFunc adapts a constructor to Binder
type BindFunc[T any] func(Queryer) T

// Bind calls f
func (f BindFunc[T]) Bind(q Queryer) T { return f(q) }

// MustBind binds q and panics when it is nil, which only happens when a
// service was built without a store
func MustBind[T any](b Binder[T], q Queryer) T {
	if q == nil {
		panic("repokit: bind on a nil Queryer")
	}
	return b.Bind(q)
}
