// Package app composes the fantasy platform's services into a running
// application.
//
// Domain models live under domain/, storage interfaces and their memory and
// postgres implementations under storage/, business logic under services/,
// and the HTTP surface under httpapi/. The Application struct in this
// package wires services to stores and manages the lifecycle of background
// workers through the system manager.
package app
