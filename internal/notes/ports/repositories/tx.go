// Package repositories defines repository interfaces for the notes service.
package repositories

import "context"

// TxManager управляет границами транзакций. Все операции репозиториев,
// выполненные внутри fn, попадают в одну транзакцию; ошибка fn откатывает её.
type TxManager interface {
	WithinTx(ctx context.Context, fn func(ctx context.Context) error) error
}
