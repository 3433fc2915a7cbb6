// Package common holds the ambient pieces shared by every bolthelper
// invocation: the helper configuration, the logger factory and the
// per-invocation metrics set.
//
// Nothing in this package is process global. The command dispatcher builds one
// HelperConfig, one logrus.Logger and one Metrics value per invocation and
// passes them down explicitly.
//
// Logging never touches stdout, which is reserved for the single JSON result.
// Logs go to stderr, or to a rotating file when a log file is configured.
package common
