package common

import (
	"fmt"
	"strings"
	"time"
)

// --------------------------------------------------------------------------
// Helper configuration struct
// --------------------------------------------------------------------------

// HelperConfig holds the settings shared by all commands of one invocation.
type HelperConfig struct {
	// DBPath is the bolt database file
	DBPath string

	// Timeout bounds the wait for the store's file lock (0 waits forever)
	Timeout time.Duration

	// Logging configuration
	LogLevel string
	LogFile  string

	// MetricsOut is the file the invocation metrics are written to (empty disables)
	MetricsOut string

	// Pretty indents the JSON result
	Pretty bool
}

// String returns a formatted string representation of the configuration
func (c *HelperConfig) String() string {
	var sb strings.Builder

	// Create helper functions for consistent formatting
	addSection := func(title string) {
		sb.WriteString("\n")
		sb.WriteString(fmt.Sprintf("%s\n", strings.ToUpper(title)))
	}

	addField := func(name, value string) {
		sb.WriteString(fmt.Sprintf("  %-22s: %s\n", name, value))
	}

	orNone := func(s string) string {
		if s == "" {
			return "-"
		}
		return s
	}

	addSection("Store")
	addField("Database", orNone(c.DBPath))
	addField("Lock Timeout", c.Timeout.String())

	addSection("Logging")
	addField("Log Level", c.LogLevel)
	addField("Log File", orNone(c.LogFile))

	addSection("Output")
	addField("Pretty", fmt.Sprintf("%t", c.Pretty))
	addField("Metrics Out", orNone(c.MetricsOut))

	return sb.String()
}
