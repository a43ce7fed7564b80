package assist

// SchemaHints returns the static domain knowledge injected into SQL
// generation prompts: table purposes, key fields and query-pattern
// heuristics. This is a pure constant; the live schema, when needed, comes
// from the store's DescribeSchema instead.
func SchemaHints() string {
	return `Database Schema Hints:
- jobs table: job records with customer_id, job_type, status, created_at
- bookings table: scheduled work with scheduled_date, technician, job_id
- customers table: customer information with id, name, phone, email, address

Common query patterns:
- "leads" or "jobs" -> query the jobs table
- "bookings" or "appointments" -> query the bookings table
- "customers" or "clients" -> query the customers table
- For date ranges, use INTERVAL or date functions
- Use JOINs when connecting customer names to bookings or jobs`
}
