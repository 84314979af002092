// Package application decide admissão (Service.Decide) e reserva de slots de
// concorrência (ConcurrencyService.Acquire) sem conhecer net/http.
package application
