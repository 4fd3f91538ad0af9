// Package services holds the error taxonomy shared by the external service
// clients and the pipeline stages that call them.
package services
