package descriptions

// Comprehensive tool descriptions with practical examples and use cases

const (
	// Analysis Tools
	VoucherAnalyzeFileDescription = `Run the full dividend-voucher analysis pipeline on a document file.

**When to use:** You have a dividend resolution document (PDF or plain text) and need its structured facts: document title, company name, resolution date and total dividend amount.

**Why it's useful:** One call parses the document, extracts and validates the four required fields, renders a highlight PDF marking where each fact was found, and stores everything under a session key for later retrieval.

**Examples:**
• Process a board resolution: "Analyze /vouchers/resolution-2024.pdf"
• Re-run with a specific backend: "Analyze resolution.pdf with provider claude"
• Keep a stable key: "Analyze resolution.pdf under session_key q1-acme"

**Common workflows:**
1. Intake: voucher_analyze_file → check validation status → voucher_save_highlight for review
2. Audit: voucher_analyze_file → voucher_load_session later for the same facts
3. Screening: voucher_validate_file first → voucher_analyze_file only for passing documents

**Best practices:** Keep the returned session key, it is the handle for every follow-up tool. Omit session_key to have one generated.`

	VoucherValidateFileDescription = `Check whether a document carries all required dividend-resolution facts.

**When to use:** You only need the pass/fail verdict, not the highlight PDF or a stored session.

**Why it's useful:** Runs extraction and validation without rendering or persistence, so it is the cheapest way to screen a batch of documents.

**Examples:**
• Batch screening: "Validate every file in /incoming/ and keep the passing ones"
• Quick verdict: "Does memo.pdf contain a valid resolution date and amount?"

**Common workflows:**
1. Screening: voucher_validate_file → voucher_analyze_file for documents that pass
2. Monitoring: validate re-exported documents to confirm nothing was lost in conversion

**Best practices:** A failing report names each missing or malformed requirement with its message, read them all before rejecting a document.`

	// Session Tools
	VoucherSaveHighlightDescription = `Write the highlight PDF of a stored analysis session to a file.

**When to use:** After voucher_analyze_file, when a reviewer needs the annotated document showing where each extracted fact came from.

**Why it's useful:** The highlight PDF re-renders the document text with yellow bands behind the title, company, date and amount evidence, making manual verification fast.

**Examples:**
• Review package: "Save the highlight PDF for session q1-acme to /review/acme.pdf"
• Archival: "Save highlights next to the source file as resolution-2024.highlight.pdf"

**Best practices:** The session must come from a previous voucher_analyze_file call. Sessions are never created by voucher_validate_file.`

	VoucherListSessionsDescription = `List the session keys of all stored analysis results.

**When to use:** To discover what has already been analyzed, or to find candidates for cleanup.

**Common workflows:**
1. Housekeeping: voucher_list_sessions → voucher_delete_session for stale keys
2. Recovery: list sessions → voucher_load_session to re-read a past result`

	VoucherLoadSessionDescription = `Load a stored analysis result and show its extraction and validation summary.

**When to use:** To re-read the facts of a past analysis without re-processing the source document.

**Why it's useful:** Results persist across tool calls (and across restarts when Redis is configured), so expensive analysis never has to repeat.

**Examples:**
• Follow-up question: "What dividend amount did session q1-acme contain?"`

	VoucherDeleteSessionDescription = `Delete a stored analysis result.

**When to use:** The session is no longer needed, or its source document was superseded by a corrected version.

**Best practices:** Deleting an unknown session key is not an error, so cleanup scripts can be idempotent.`

	// Server Tools
	VoucherServerInfoDescription = `Get server information, available tools and usage guidance.

**When to use:** First call in a new conversation to learn the configured provider, the persistence backend, the file size limit and the full tool list.

**Why it's useful:** Tells you which extraction provider answers voucher_analyze_file calls by default and whether sessions survive a restart.`
)
