// Package api exposes the playlist surface over HTTP.
package api
