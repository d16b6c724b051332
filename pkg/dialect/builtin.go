package dialect

func init() {
	Register(&Dialect{
		Name:            "duckdb",
		Identifiers:     IdentifierConfig{QuoteStart: `"`, QuoteEnd: `"`, Escape: `""`},
		DefaultSchema:   "main",
		Placeholder:     PlaceholderQuestion,
		RandomFunc:      "RANDOM()",
		TimestampLayout: "2006-01-02 15:04:05",
		SupportsSchemas: true,
	})

	Register(&Dialect{
		Name:            "sqlite",
		Identifiers:     IdentifierConfig{QuoteStart: `"`, QuoteEnd: `"`, Escape: `""`},
		DefaultSchema:   "main",
		Placeholder:     PlaceholderQuestion,
		RandomFunc:      "RANDOM()",
		TimestampLayout: "2006-01-02 15:04:05",
		SupportsSchemas: false,
	})

	Register(&Dialect{
		Name:            "postgres",
		Identifiers:     IdentifierConfig{QuoteStart: `"`, QuoteEnd: `"`, Escape: `""`},
		DefaultSchema:   "public",
		Placeholder:     PlaceholderDollar,
		RandomFunc:      "RANDOM()",
		TimestampLayout: "2006-01-02 15:04:05.999999-07",
		SupportsSchemas: true,
	})

	Register(&Dialect{
		Name:            "mysql",
		Identifiers:     IdentifierConfig{QuoteStart: "`", QuoteEnd: "`", Escape: "``"},
		DefaultSchema:   "",
		Placeholder:     PlaceholderQuestion,
		RandomFunc:      "RAND()",
		TimestampLayout: "2006-01-02 15:04:05",
		SupportsSchemas: true,
	})
}
