// Package trade holds the event contracts raised by the sales and purchasing
// modules. Those modules live outside this service; only the plain-data
// events they publish are modeled here. Monetary values travel as decimal
// strings.
package trade
