// Package invoice holds the invoice transaction model and the pure
// discount computation that produces the payable amount.
//
// The discount pipeline has three fixed stages: per-item discounts,
// the optional overall discount, and the unconditional adjustment.
// All monetary values use shopspring/decimal; nothing here performs
// I/O or keeps state.
package invoice
