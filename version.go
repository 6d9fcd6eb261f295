package gosharepoint

// SharePointGoClientVersion is the version of the Go SharePoint client.
const SharePointGoClientVersion = "0.4.0"
