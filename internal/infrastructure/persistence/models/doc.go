// Package models contains the GORM persistence models of the accounting core.
// Domain aggregates carry no ORM tags; each model here maps one table and
// converts to and from its aggregate with ToDomain and FromDomain.
//
// Amounts are stored as decimal(20,8) and dates without a time component
// as DATE columns normalized to UTC midnight.
package models
