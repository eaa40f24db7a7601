// Package account manages the users of a portfolio application
// and the routes they sign up, log in and manage their accounts through.
package account
