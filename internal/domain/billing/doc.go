// Package billing owns the scoring and billing ledger: customer
// records, creditworthiness scores, and the acceptance/repayment
// history of every loan cycle.
package billing
