// Package store persists flows and session chat history in Redis
package store
