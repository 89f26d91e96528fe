package facets

const Version = "0.1.0"
