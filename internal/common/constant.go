// Package common contains constants and sentinel errors shared by the
// posmart client and server.
package common

// AccessTokenHeaderName is the gRPC metadata key used to carry the
// access token on outbound requests.
const AccessTokenHeaderName = "access_token"

// TransactionTypeSale is the queue type for sales recorded while offline.
const TransactionTypeSale = "sale"

// SyncTagSales is the background-sync tag that drains queued sales.
const SyncTagSales = "sync-sales"
