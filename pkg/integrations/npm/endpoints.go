package npm

import (
	"context"
	"strings"

	"github.com/blang/semver"

	"github.com/matzehuels/npmreg/pkg/errors"
	"github.com/matzehuels/npmreg/pkg/integrations"
	"github.com/matzehuels/npmreg/pkg/schema"
)

// Limits of the bulk downloads endpoints.
const (
	MinBulkPackages = 2
	MaxBulkPackages = 128
)

// AbbreviatedAccept is the media type that selects abbreviated packuments.
const AbbreviatedAccept = "application/vnd.npm.install-v1+json"

type apiRoot int

const (
	registryAPI apiRoot = iota
	downloadsAPI
)

func (c *Client) root(r apiRoot) string {
	if r == downloadsAPI {
		return c.downloadsURL
	}
	return c.registryURL
}

// endpoint describes one registry route: which API root it lives under, the
// fixed headers it sends and the schema its response must satisfy.
type endpoint[T any] struct {
	name    string
	root    apiRoot
	headers map[string]string
	schema  *schema.Schema[T]
}

// call joins path onto the endpoint's root and runs the fetch pipeline.
func (e endpoint[T]) call(ctx context.Context, c *Client, path ...string) (T, error) {
	return e.fetchURL(ctx, c, integrations.JoinURL(c.root(e.root), path...))
}

func (e endpoint[T]) fetchURL(ctx context.Context, c *Client, url string) (T, error) {
	return fetch(ctx, c, e.name, e.schema, url, e.headers)
}

var (
	packumentEndpoint                 = endpoint[Packument]{name: "packument", root: registryAPI, schema: PackumentSchema}
	abbreviatedPackumentEndpoint      = endpoint[AbbreviatedPackument]{name: "abbreviated-packument", root: registryAPI, schema: AbbreviatedPackumentSchema, headers: map[string]string{"Accept": AbbreviatedAccept}}
	manifestEndpoint                  = endpoint[PackageManifest]{name: "manifest", root: registryAPI, schema: PackageManifestSchema}
	packageDownloadsEndpoint          = endpoint[PackageDownloads]{name: "package-downloads", root: downloadsAPI, schema: PackageDownloadsSchema}
	dailyPackageDownloadsEndpoint     = endpoint[DailyPackageDownloads]{name: "daily-package-downloads", root: downloadsAPI, schema: DailyPackageDownloadsSchema}
	bulkPackageDownloadsEndpoint      = endpoint[BulkPackageDownloads]{name: "bulk-package-downloads", root: downloadsAPI, schema: BulkPackageDownloadsSchema}
	bulkDailyPackageDownloadsEndpoint = endpoint[BulkDailyPackageDownloads]{name: "bulk-daily-package-downloads", root: downloadsAPI, schema: BulkDailyPackageDownloadsSchema}
	registryDownloadsEndpoint         = endpoint[RegistryDownloads]{name: "registry-downloads", root: downloadsAPI, schema: RegistryDownloadsSchema}
	dailyRegistryDownloadsEndpoint    = endpoint[DailyRegistryDownloads]{name: "daily-registry-downloads", root: downloadsAPI, schema: DailyRegistryDownloadsSchema}
	versionsDownloadsEndpoint         = endpoint[PackageVersionsDownloads]{name: "versions-downloads", root: downloadsAPI, schema: PackageVersionsDownloadsSchema}
	signingKeysEndpoint               = endpoint[RegistrySigningKeys]{name: "signing-keys", root: registryAPI, schema: RegistrySigningKeysSchema}
	searchEndpoint                    = endpoint[SearchResults]{name: "search", root: registryAPI, schema: SearchResultsSchema}
	registryMetadataEndpoint          = endpoint[RegistryMetadata]{name: "registry-metadata", root: registryAPI, schema: RegistryMetadataSchema}
)

// GetPackument returns the full packument of name.
func (c *Client) GetPackument(ctx context.Context, name string) (Packument, error) {
	if err := errors.ValidateNpmPackageName(name); err != nil {
		return Packument{}, err
	}
	return packumentEndpoint.call(ctx, c, name)
}

// GetAbbreviatedPackument returns the abbreviated packument of name, which
// holds only the data needed to install the package.
func (c *Client) GetAbbreviatedPackument(ctx context.Context, name string) (AbbreviatedPackument, error) {
	if err := errors.ValidateNpmPackageName(name); err != nil {
		return AbbreviatedPackument{}, err
	}
	return abbreviatedPackumentEndpoint.call(ctx, c, name)
}

// GetPackageManifest returns the manifest of one version of name.
// versionOrTag is a semver version ("18.2.0") or a dist-tag ("next");
// empty means "latest".
func (c *Client) GetPackageManifest(ctx context.Context, name, versionOrTag string) (PackageManifest, error) {
	if err := errors.ValidateNpmPackageName(name); err != nil {
		return PackageManifest{}, err
	}
	if versionOrTag == "" {
		versionOrTag = "latest"
	}
	if err := validateVersionOrTag(versionOrTag); err != nil {
		return PackageManifest{}, err
	}
	return manifestEndpoint.call(ctx, c, name, versionOrTag)
}

// GetPackageDownloads returns the download total of name over period.
func (c *Client) GetPackageDownloads(ctx context.Context, name string, period DownloadPeriod) (PackageDownloads, error) {
	if err := validateNameAndPeriod(name, period); err != nil {
		return PackageDownloads{}, err
	}
	return packageDownloadsEndpoint.call(ctx, c, "downloads", "point", string(period), name)
}

// GetDailyPackageDownloads returns the per-day downloads of name over period.
func (c *Client) GetDailyPackageDownloads(ctx context.Context, name string, period DownloadPeriod) (DailyPackageDownloads, error) {
	if err := validateNameAndPeriod(name, period); err != nil {
		return DailyPackageDownloads{}, err
	}
	return dailyPackageDownloadsEndpoint.call(ctx, c, "downloads", "range", string(period), name)
}

// GetBulkPackageDownloads returns the download totals of 2 to 128 unscoped
// packages in one request. Unknown packages map to nil.
func (c *Client) GetBulkPackageDownloads(ctx context.Context, names []string, period DownloadPeriod) (BulkPackageDownloads, error) {
	if err := validateBulk(names, period); err != nil {
		return nil, err
	}
	return bulkPackageDownloadsEndpoint.call(ctx, c, "downloads", "point", string(period), strings.Join(names, ","))
}

// GetBulkDailyPackageDownloads returns the per-day downloads of 2 to 128
// unscoped packages in one request. Unknown packages map to nil.
func (c *Client) GetBulkDailyPackageDownloads(ctx context.Context, names []string, period DownloadPeriod) (BulkDailyPackageDownloads, error) {
	if err := validateBulk(names, period); err != nil {
		return nil, err
	}
	return bulkDailyPackageDownloadsEndpoint.call(ctx, c, "downloads", "range", string(period), strings.Join(names, ","))
}

// GetRegistryDownloads returns the download total of the whole registry.
func (c *Client) GetRegistryDownloads(ctx context.Context, period DownloadPeriod) (RegistryDownloads, error) {
	if err := period.Validate(); err != nil {
		return RegistryDownloads{}, err
	}
	return registryDownloadsEndpoint.call(ctx, c, "downloads", "point", string(period))
}

// GetDailyRegistryDownloads returns the per-day downloads of the whole registry.
func (c *Client) GetDailyRegistryDownloads(ctx context.Context, period DownloadPeriod) (DailyRegistryDownloads, error) {
	if err := period.Validate(); err != nil {
		return DailyRegistryDownloads{}, err
	}
	return dailyRegistryDownloadsEndpoint.call(ctx, c, "downloads", "range", string(period))
}

// GetPackageVersionsDownloads returns per-version downloads of name over the
// previous seven days.
func (c *Client) GetPackageVersionsDownloads(ctx context.Context, name string) (PackageVersionsDownloads, error) {
	if err := errors.ValidateNpmPackageName(name); err != nil {
		return PackageVersionsDownloads{}, err
	}
	return versionsDownloadsEndpoint.call(ctx, c, "versions", integrations.URLEncode(name), "last-week")
}

// GetRegistrySigningKeys returns the registry's public signing keys.
func (c *Client) GetRegistrySigningKeys(ctx context.Context) (RegistrySigningKeys, error) {
	return signingKeysEndpoint.call(ctx, c, "-", "npm", "v1", "keys")
}

// SearchPackages runs a package search.
func (c *Client) SearchPackages(ctx context.Context, criteria SearchCriteria) (SearchResults, error) {
	if err := criteria.Validate(); err != nil {
		return SearchResults{}, err
	}
	url := integrations.JoinURL(c.registryURL, "-", "v1", "search") + "?" + criteria.Query().Encode()
	return searchEndpoint.fetchURL(ctx, c, url)
}

// GetRegistryMetadata returns the registry's root document.
func (c *Client) GetRegistryMetadata(ctx context.Context) (RegistryMetadata, error) {
	return registryMetadataEndpoint.call(ctx, c)
}

func validateNameAndPeriod(name string, period DownloadPeriod) error {
	if err := errors.ValidateNpmPackageName(name); err != nil {
		return err
	}
	return period.Validate()
}

func validateBulk(names []string, period DownloadPeriod) error {
	if len(names) < MinBulkPackages || len(names) > MaxBulkPackages {
		return errors.New(errors.ErrCodeInvalidInput, "bulk queries take %d to %d packages, got %d", MinBulkPackages, MaxBulkPackages, len(names))
	}
	for _, name := range names {
		if err := errors.ValidateNpmPackageName(name); err != nil {
			return err
		}
		if _, _, scoped := errors.SplitScope(name); scoped {
			return errors.New(errors.ErrCodeInvalidName, "bulk queries do not support scoped packages: %q", name)
		}
	}
	return period.Validate()
}

// validateVersionOrTag accepts a semver version or a dist-tag made of
// unreserved URL characters. The dot segments are rejected since servers
// resolve them to a different path.
func validateVersionOrTag(s string) error {
	if _, err := semver.Parse(s); err == nil {
		return nil
	}
	if s == "." || s == ".." {
		return errors.New(errors.ErrCodeInvalidInput, "invalid version or tag %q", s)
	}
	for _, r := range s {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9':
		case r == '-', r == '.', r == '_', r == '~':
		default:
			return errors.New(errors.ErrCodeInvalidInput, "invalid version or tag %q", s)
		}
	}
	return nil
}
