// Package pagination parses the list flags shared by the resource commands.
//
// The Tavern API pages with relay cursors, so there is no offset or page
// number: --page-size sets how many ids one request asks for and --limit caps
// how many rows plain output prints. --sort maps "field[:asc|desc]" onto a
// resource's GraphQL orderBy.
package pagination
