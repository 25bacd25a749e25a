/*
Command refxml converts the references sections of text-format RFCs and
Internet-Drafts into xml2rfc citation markup.

Conversion is tolerant: a reference entry that cannot be parsed into
structured fields is emitted as an unstructured annotation instead of being
dropped, so output is always valid against the v2 (RFC 7749) or v3 (RFC 7991)
grammar. Only a duplicate reference anchor aborts a conversion.

See the subcommands for converting documents, parsing single entries,
stripping page furniture, maintaining a local citation library and serving a
web API.
*/
package main
