package npm

import (
	"bytes"
	"encoding/json"
	"strings"

	"github.com/matzehuels/npmreg/pkg/integrations"
)

// Packument is the full package document: every published version plus
// package-level metadata.
type Packument struct {
	ID             string                     `json:"_id"`
	Rev            string                     `json:"_rev,omitempty"`
	Name           string                     `json:"name"`
	DistTags       map[string]string          `json:"dist-tags,omitempty"`
	Versions       map[string]PackageManifest `json:"versions,omitempty"`
	Time           LooseStringMap             `json:"time,omitempty"`
	Maintainers    []Person                   `json:"maintainers,omitempty"`
	Author         *Person                    `json:"author,omitempty"`
	Contributors   []Person                   `json:"contributors,omitempty"`
	Description    string                     `json:"description,omitempty"`
	Homepage       LooseString                `json:"homepage,omitempty"`
	Keywords       []string                   `json:"keywords,omitempty"`
	Repository     *Repository                `json:"repository,omitempty"`
	Bugs           *Bugs                      `json:"bugs,omitempty"`
	License        LooseString                `json:"license,omitempty"`
	Readme         string                     `json:"readme,omitempty"`
	ReadmeFilename string                     `json:"readmeFilename,omitempty"`
	Users          map[string]bool            `json:"users,omitempty"`
}

// Latest returns the manifest the "latest" dist-tag points to.
func (p *Packument) Latest() (PackageManifest, bool) {
	m, ok := p.Versions[p.DistTags["latest"]]
	return m, ok
}

// AbbreviatedPackument holds only the metadata needed to install a package.
type AbbreviatedPackument struct {
	Name     string                         `json:"name"`
	Modified string                         `json:"modified,omitempty"`
	DistTags map[string]string              `json:"dist-tags"`
	Versions map[string]AbbreviatedManifest `json:"versions"`
}

// PackageManifest describes one published version: the package.json fields
// plus the data the registry adds on publish.
type PackageManifest struct {
	ID                   string                        `json:"_id"`
	Name                 string                        `json:"name"`
	Version              string                        `json:"version"`
	Description          string                        `json:"description,omitempty"`
	Keywords             []string                      `json:"keywords,omitempty"`
	Homepage             LooseString                   `json:"homepage,omitempty"`
	Bugs                 *Bugs                         `json:"bugs,omitempty"`
	License              LooseString                   `json:"license,omitempty"`
	Author               *Person                       `json:"author,omitempty"`
	Contributors         []Person                      `json:"contributors,omitempty"`
	Maintainers          []Person                      `json:"maintainers,omitempty"`
	Funding              json.RawMessage               `json:"funding,omitempty"`
	Files                []string                      `json:"files,omitempty"`
	Main                 string                        `json:"main,omitempty"`
	Browser              json.RawMessage               `json:"browser,omitempty"`
	Bin                  json.RawMessage               `json:"bin,omitempty"`
	Man                  json.RawMessage               `json:"man,omitempty"`
	Directories          json.RawMessage               `json:"directories,omitempty"`
	Repository           *Repository                   `json:"repository,omitempty"`
	Scripts              map[string]string             `json:"scripts,omitempty"`
	Config               json.RawMessage               `json:"config,omitempty"`
	Dependencies         map[string]string             `json:"dependencies,omitempty"`
	DevDependencies      map[string]string             `json:"devDependencies,omitempty"`
	PeerDependencies     map[string]string             `json:"peerDependencies,omitempty"`
	PeerDependenciesMeta map[string]PeerDependencyMeta `json:"peerDependenciesMeta,omitempty"`
	OptionalDependencies map[string]string             `json:"optionalDependencies,omitempty"`
	BundleDependencies   json.RawMessage               `json:"bundleDependencies,omitempty"`
	BundledDependencies  json.RawMessage               `json:"bundledDependencies,omitempty"`
	Engines              LooseStringMap                `json:"engines,omitempty"`
	OS                   []string                      `json:"os,omitempty"`
	CPU                  []string                      `json:"cpu,omitempty"`
	Type                 string                        `json:"type,omitempty"`
	Types                string                        `json:"types,omitempty"`
	Typings              string                        `json:"typings,omitempty"`
	Exports              json.RawMessage               `json:"exports,omitempty"`
	Imports              json.RawMessage               `json:"imports,omitempty"`
	Workspaces           json.RawMessage               `json:"workspaces,omitempty"`
	PublishConfig        json.RawMessage               `json:"publishConfig,omitempty"`
	Private              bool                          `json:"private,omitempty"`
	Deprecated           *Deprecation                  `json:"deprecated,omitempty"`

	Dist                   Dist                 `json:"dist"`
	Readme                 string               `json:"readme,omitempty"`
	ReadmeFilename         string               `json:"readmeFilename,omitempty"`
	GitHead                string               `json:"gitHead,omitempty"`
	HasShrinkwrap          bool                 `json:"_hasShrinkwrap,omitempty"`
	NodeVersion            string               `json:"_nodeVersion,omitempty"`
	NpmVersion             string               `json:"_npmVersion,omitempty"`
	NpmUser                *Person              `json:"_npmUser,omitempty"`
	NpmOperationalInternal *OperationalInternal `json:"_npmOperationalInternal,omitempty"`
}

// OperationalInternal is registry bookkeeping attached to older manifests.
type OperationalInternal struct {
	Host string `json:"host,omitempty"`
	Tmp  string `json:"tmp,omitempty"`
}

// AbbreviatedManifest is the install-only subset of a manifest.
type AbbreviatedManifest struct {
	Name                 string                        `json:"name"`
	Version              string                        `json:"version"`
	Deprecated           *Deprecation                  `json:"deprecated,omitempty"`
	Dependencies         map[string]string             `json:"dependencies,omitempty"`
	DevDependencies      map[string]string             `json:"devDependencies,omitempty"`
	OptionalDependencies map[string]string             `json:"optionalDependencies,omitempty"`
	PeerDependencies     map[string]string             `json:"peerDependencies,omitempty"`
	PeerDependenciesMeta map[string]PeerDependencyMeta `json:"peerDependenciesMeta,omitempty"`
	BundleDependencies   json.RawMessage               `json:"bundleDependencies,omitempty"`
	Bin                  json.RawMessage               `json:"bin,omitempty"`
	Directories          json.RawMessage               `json:"directories,omitempty"`
	Funding              json.RawMessage               `json:"funding,omitempty"`
	Engines              LooseStringMap                `json:"engines,omitempty"`
	OS                   []string                      `json:"os,omitempty"`
	CPU                  []string                      `json:"cpu,omitempty"`
	Libc                 []string                      `json:"libc,omitempty"`
	License              LooseString                   `json:"license,omitempty"`
	Dist                 Dist                          `json:"dist"`
	HasShrinkwrap        bool                          `json:"_hasShrinkwrap,omitempty"`
	HasInstallScript     bool                          `json:"hasInstallScript,omitempty"`
}

// PeerDependencyMeta carries per-peer flags.
type PeerDependencyMeta struct {
	Optional bool `json:"optional,omitempty"`
}

// Dist is the distribution metadata generated by the registry.
type Dist struct {
	Tarball      string        `json:"tarball"`
	Shasum       string        `json:"shasum"`
	Integrity    string        `json:"integrity,omitempty"`
	FileCount    int           `json:"fileCount,omitempty"`
	UnpackedSize int64         `json:"unpackedSize,omitempty"`
	NpmSignature string        `json:"npm-signature,omitempty"`
	Signatures   []Signature   `json:"signatures,omitempty"`
	Attestations *Attestations `json:"attestations,omitempty"`
}

// Signature is an ECDSA registry signature over "<name>@<version>:<integrity>".
type Signature struct {
	KeyID string `json:"keyid"`
	Sig   string `json:"sig"`
}

// Attestations points at the provenance bundle of a version.
type Attestations struct {
	URL        string `json:"url,omitempty"`
	Provenance *struct {
		PredicateType string `json:"predicateType,omitempty"`
	} `json:"provenance,omitempty"`
}

// PackageDownloads is the download total of one package over a period.
type PackageDownloads struct {
	Downloads int64  `json:"downloads"`
	Start     string `json:"start"`
	End       string `json:"end"`
	Package   string `json:"package"`
}

// DailyPackageDownloads breaks a package's downloads down per day.
type DailyPackageDownloads struct {
	Downloads []DailyDownloads `json:"downloads"`
	Start     string           `json:"start"`
	End       string           `json:"end"`
	Package   string           `json:"package"`
}

// DailyDownloads is the download count of a single day (YYYY-MM-DD).
type DailyDownloads struct {
	Downloads int64  `json:"downloads"`
	Day       string `json:"day"`
}

// BulkPackageDownloads maps each requested name to its downloads; unknown
// packages map to nil.
type BulkPackageDownloads map[string]*PackageDownloads

// BulkDailyPackageDownloads maps each requested name to its daily downloads;
// unknown packages map to nil.
type BulkDailyPackageDownloads map[string]*DailyPackageDownloads

// RegistryDownloads is the download total of the whole registry.
type RegistryDownloads struct {
	Downloads int64  `json:"downloads"`
	Start     string `json:"start"`
	End       string `json:"end"`
}

// DailyRegistryDownloads breaks the registry's downloads down per day.
type DailyRegistryDownloads struct {
	Downloads []DailyDownloads `json:"downloads"`
	Start     string           `json:"start"`
	End       string           `json:"end"`
}

// PackageVersionsDownloads maps each version of a package to its downloads
// over the previous seven days.
type PackageVersionsDownloads struct {
	Package   string           `json:"package"`
	Downloads map[string]int64 `json:"downloads"`
}

// RegistrySigningKeys lists the public keys the registry signs with.
type RegistrySigningKeys struct {
	Keys []SigningKey `json:"keys"`
}

// SigningKey is one registry public key. Expires is nil for keys in use.
type SigningKey struct {
	Expires *string `json:"expires"`
	KeyID   string  `json:"keyid"`
	KeyType string  `json:"keytype"`
	Scheme  string  `json:"scheme"`
	Key     string  `json:"key"`
}

// SearchResults is one page of package search results.
type SearchResults struct {
	Objects []SearchResult `json:"objects"`
	Total   int            `json:"total"`
	Time    string         `json:"time"`
}

// SearchResult is one package in SearchResults.
type SearchResult struct {
	Package     PackageSearchResult `json:"package"`
	Score       SearchScore         `json:"score"`
	SearchScore float64             `json:"searchScore"`
	Downloads   *SearchDownloads    `json:"downloads,omitempty"`
	Dependents  NumberOrString      `json:"dependents,omitempty"`
	Updated     string              `json:"updated,omitempty"`
	Flags       json.RawMessage     `json:"flags,omitempty"`
}

// PackageSearchResult is the abbreviated package metadata of a search hit.
type PackageSearchResult struct {
	Name        string       `json:"name"`
	Scope       string       `json:"scope,omitempty"`
	Version     string       `json:"version"`
	Description string       `json:"description,omitempty"`
	Keywords    []string     `json:"keywords,omitempty"`
	Date        string       `json:"date,omitempty"`
	License     string       `json:"license,omitempty"`
	Links       PackageLinks `json:"links,omitzero"`
	Publisher   *Person      `json:"publisher,omitempty"`
	Author      *Person      `json:"author,omitempty"`
	Maintainers []Person     `json:"maintainers,omitempty"`
}

// PackageLinks are the links shown on a package's page.
type PackageLinks struct {
	NPM        string `json:"npm,omitempty"`
	Homepage   string `json:"homepage,omitempty"`
	Repository string `json:"repository,omitempty"`
	Bugs       string `json:"bugs,omitempty"`
}

// SearchScore is the final ranking score and its components, each in [0, 1].
type SearchScore struct {
	Final  float64 `json:"final"`
	Detail struct {
		Quality     float64 `json:"quality"`
		Popularity  float64 `json:"popularity"`
		Maintenance float64 `json:"maintenance"`
	} `json:"detail"`
}

// SearchDownloads are the recent download counts of a search hit.
type SearchDownloads struct {
	Monthly int64 `json:"monthly"`
	Weekly  int64 `json:"weekly"`
}

// RegistryMetadata is the registry's root document. Every field is
// optional; mirrors and proxies often return only a few of them.
type RegistryMetadata struct {
	DBName             string         `json:"db_name,omitempty"`
	Engine             string         `json:"engine,omitempty"`
	DocCount           int64          `json:"doc_count,omitempty"`
	DocDelCount        int64          `json:"doc_del_count,omitempty"`
	UpdateSeq          NumberOrString `json:"update_seq,omitempty"`
	PurgeSeq           NumberOrString `json:"purge_seq,omitempty"`
	CompactRunning     bool           `json:"compact_running,omitempty"`
	Sizes              *RegistrySizes `json:"sizes,omitempty"`
	DiskSize           int64          `json:"disk_size,omitempty"`
	DataSize           int64          `json:"data_size,omitempty"`
	Other              *RegistryOther `json:"other,omitempty"`
	InstanceStartTime  string         `json:"instance_start_time,omitempty"`
	DiskFormatVersion  int            `json:"disk_format_version,omitempty"`
	CommittedUpdateSeq NumberOrString `json:"committed_update_seq,omitempty"`
	CompactedSeq       NumberOrString `json:"compacted_seq,omitempty"`
	UUID               string         `json:"uuid,omitempty"`
}

// RegistrySizes are the database sizes in bytes.
type RegistrySizes struct {
	Active   int64 `json:"active,omitempty"`
	External int64 `json:"external,omitempty"`
	File     int64 `json:"file,omitempty"`
}

// RegistryOther holds legacy size fields.
type RegistryOther struct {
	DataSize int64 `json:"data_size,omitempty"`
}

// =============================================================================
// Flexible fields
// =============================================================================

// Person is an author, contributor or maintainer. The registry stores people
// either as objects or as "Name <email> (url)" strings; both decode here.
type Person struct {
	Name     string `json:"name,omitempty"`
	Email    string `json:"email,omitempty"`
	URL      string `json:"url,omitempty"`
	Username string `json:"username,omitempty"`
}

// UnmarshalJSON accepts both the object and the string form.
func (p *Person) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err == nil {
		*p = ParsePerson(s)
		return nil
	}
	type person Person
	var v person
	if err := json.Unmarshal(data, &v); err != nil {
		return err
	}
	*p = Person(v)
	return nil
}

// ParsePerson parses the "Name <email> (url)" shorthand. Email and url are
// optional and may appear in either order.
func ParsePerson(s string) Person {
	var p Person
	rest := s
	if i := strings.IndexByte(rest, '<'); i >= 0 {
		if j := strings.IndexByte(rest[i:], '>'); j > 0 {
			p.Email = strings.TrimSpace(rest[i+1 : i+j])
			rest = rest[:i] + rest[i+j+1:]
		}
	}
	if i := strings.IndexByte(rest, '('); i >= 0 {
		if j := strings.IndexByte(rest[i:], ')'); j > 0 {
			p.URL = strings.TrimSpace(rest[i+1 : i+j])
			rest = rest[:i] + rest[i+j+1:]
		}
	}
	p.Name = strings.TrimSpace(rest)
	return p
}

// String formats p in the "Name <email> (url)" shorthand.
func (p Person) String() string {
	parts := make([]string, 0, 3)
	if p.Name != "" {
		parts = append(parts, p.Name)
	} else if p.Username != "" {
		parts = append(parts, p.Username)
	}
	if p.Email != "" {
		parts = append(parts, "<"+p.Email+">")
	}
	if p.URL != "" {
		parts = append(parts, "("+p.URL+")")
	}
	return strings.Join(parts, " ")
}

// Repository is the source location of a package. A bare string such as
// "github:user/repo" or "user/repo" decodes into URL.
type Repository struct {
	Type      string `json:"type,omitempty"`
	URL       string `json:"url,omitempty"`
	Directory string `json:"directory,omitempty"`
}

// UnmarshalJSON accepts both the object and the string form.
func (r *Repository) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err == nil {
		*r = Repository{URL: s}
		return nil
	}
	type repository Repository
	var v repository
	if err := json.Unmarshal(data, &v); err != nil {
		return err
	}
	*r = Repository(v)
	return nil
}

// WebURL returns an https URL for the repository, expanding GitHub
// shorthands. It returns "" when the repository has no URL.
func (r *Repository) WebURL() string {
	if r == nil || r.URL == "" {
		return ""
	}
	u := strings.TrimSpace(r.URL)
	switch {
	case strings.HasPrefix(u, "github:"):
		u = "https://github.com/" + strings.TrimPrefix(u, "github:")
	case strings.HasPrefix(u, "gitlab:"):
		u = "https://gitlab.com/" + strings.TrimPrefix(u, "gitlab:")
	case strings.HasPrefix(u, "bitbucket:"):
		u = "https://bitbucket.org/" + strings.TrimPrefix(u, "bitbucket:")
	case !strings.Contains(u, ":") && strings.Count(u, "/") == 1:
		u = "https://github.com/" + u
	}
	return integrations.NormalizeRepoURL(u)
}

// Bugs is where issues are reported. A bare string decodes into URL.
type Bugs struct {
	URL   string `json:"url,omitempty"`
	Email string `json:"email,omitempty"`
}

// UnmarshalJSON accepts both the object and the string form.
func (b *Bugs) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err == nil {
		*b = Bugs{URL: s}
		return nil
	}
	type bugs Bugs
	var v bugs
	if err := json.Unmarshal(data, &v); err != nil {
		return err
	}
	*b = Bugs(v)
	return nil
}

// Deprecation is a deprecation notice. Most manifests carry a message; some
// (react@16.14.0, for one) carry a bare boolean.
type Deprecation struct {
	Deprecated bool
	Message    string
}

// UnmarshalJSON accepts a string or a boolean. An empty string means the
// version is not deprecated.
func (d *Deprecation) UnmarshalJSON(data []byte) error {
	var b bool
	if err := json.Unmarshal(data, &b); err == nil {
		*d = Deprecation{Deprecated: b}
		return nil
	}
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	*d = Deprecation{Deprecated: s != "", Message: s}
	return nil
}

// MarshalJSON writes the message if there is one and the flag otherwise.
func (d Deprecation) MarshalJSON() ([]byte, error) {
	if d.Message != "" {
		return json.Marshal(d.Message)
	}
	return json.Marshal(d.Deprecated)
}

// LooseString is a string field that old packages sometimes filled with
// another shape (license objects in eslint@0.0.6, homepage arrays in
// fs-extra@0.0.1). Any non-string value decodes to "".
type LooseString string

// UnmarshalJSON implements json.Unmarshaler.
func (s *LooseString) UnmarshalJSON(data []byte) error {
	var v string
	if err := json.Unmarshal(data, &v); err != nil {
		*s = ""
		return nil
	}
	*s = LooseString(v)
	return nil
}

// LooseStringMap is a string-to-string object that old packages sometimes
// filled with another shape (engines arrays in lodash@0.1.0). A non-object
// decodes to nil and non-string members are dropped.
type LooseStringMap map[string]string

// UnmarshalJSON implements json.Unmarshaler.
func (m *LooseStringMap) UnmarshalJSON(data []byte) error {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil || raw == nil {
		*m = nil
		return nil
	}
	out := make(LooseStringMap, len(raw))
	for k, v := range raw {
		var s string
		if json.Unmarshal(v, &s) == nil {
			out[k] = s
		}
	}
	*m = out
	return nil
}

// NumberOrString holds a value the registry reports as either a JSON number
// or a string, such as CouchDB sequence ids. Numbers keep their literal text.
type NumberOrString string

// UnmarshalJSON implements json.Unmarshaler.
func (n *NumberOrString) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*n = NumberOrString(s)
		return nil
	}
	var num json.Number
	if err := json.Unmarshal(data, &num); err != nil {
		return err
	}
	*n = NumberOrString(num)
	return nil
}
