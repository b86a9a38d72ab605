// Package version holds build metadata.
package version

// Version is the application version, set at build time with
// -ldflags "-X github.com/Raikerian/encodec-explorer/internal/version.Version=v1.2.3".
var Version = "dev"

const Product = "encodec-explorer"

// String is the product name and version for banners.
func String() string {
	return Product + " " + Version
}
