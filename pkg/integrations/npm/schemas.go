package npm

import (
	"embed"

	"github.com/matzehuels/npmreg/pkg/schema"
)

//go:embed schemas/*.json
var schemaFiles embed.FS

var schemas = schema.MustLoad(schemaFiles, "schemas")

// Response schemas, one per endpoint. They are exported so callers of
// [Fetch] can reuse them against mirrors or custom routes.
var (
	PackumentSchema                 = schema.Must[Packument](schemas, "packument.json")
	AbbreviatedPackumentSchema      = schema.Must[AbbreviatedPackument](schemas, "abbreviated-packument.json")
	PackageManifestSchema           = schema.Must[PackageManifest](schemas, "manifest.json")
	AbbreviatedManifestSchema       = schema.Must[AbbreviatedManifest](schemas, "abbreviated-manifest.json")
	PackageDownloadsSchema          = schema.Must[PackageDownloads](schemas, "package-downloads.json")
	DailyPackageDownloadsSchema     = schema.Must[DailyPackageDownloads](schemas, "daily-package-downloads.json")
	BulkPackageDownloadsSchema      = schema.Must[BulkPackageDownloads](schemas, "bulk-package-downloads.json")
	BulkDailyPackageDownloadsSchema = schema.Must[BulkDailyPackageDownloads](schemas, "bulk-daily-package-downloads.json")
	RegistryDownloadsSchema         = schema.Must[RegistryDownloads](schemas, "registry-downloads.json")
	DailyRegistryDownloadsSchema    = schema.Must[DailyRegistryDownloads](schemas, "daily-registry-downloads.json")
	PackageVersionsDownloadsSchema  = schema.Must[PackageVersionsDownloads](schemas, "package-versions-downloads.json")
	RegistrySigningKeysSchema       = schema.Must[RegistrySigningKeys](schemas, "registry-signing-keys.json")
	SearchResultsSchema             = schema.Must[SearchResults](schemas, "search-results.json")
	RegistryMetadataSchema          = schema.Must[RegistryMetadata](schemas, "registry-metadata.json")
)
