// Package constants holds shared persistence constants.
package constants

// Database table names.
const (
	TableSubscriptions       = "subscriptions"
	TableInstances           = "instances"
	TableProvisioningQueue   = "provisioning_queue"
	TableBillingTransactions = "billing_transactions"
)
