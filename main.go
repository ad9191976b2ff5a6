// Command clerkconnect searches City Clerk Connect in a headless Chrome and
// writes every council file it finds as JSON.
//
// Usage:
//
//	clerkconnect crawl [word]
//	clerkconnect record <file-number>
//	clerkconnect serve
package main

func main() {
	Execute()
}
