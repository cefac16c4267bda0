package github

// GraphQL documents used by the binding. Page sizes balance response size
// against round trips; nested comment connections that overflow their
// first page are drained with the node queries below.

const issuesQuery = `
query Issues($owner: String!, $name: String!, $labels: [String!], $cursor: String) {
  repository(owner: $owner, name: $name) {
    issues(first: 25, after: $cursor, filterBy: {labels: $labels}, orderBy: {field: CREATED_AT, direction: ASC}) {
      nodes {
        id
        number
        title
        url
        state
        body
        createdAt
        author { login }
        labels(first: 20) { nodes { name } }
        comments(first: 100) {
          nodes { id body createdAt author { login } }
          pageInfo { hasNextPage endCursor }
        }
      }
      pageInfo { hasNextPage endCursor }
    }
  }
}`

const issueCommentsQuery = `
query IssueComments($id: ID!, $cursor: String) {
  node(id: $id) {
    ... on Issue {
      comments(first: 100, after: $cursor) {
        nodes { id body createdAt author { login } }
        pageInfo { hasNextPage endCursor }
      }
    }
  }
}`

const discussionsQuery = `
query Discussions($owner: String!, $name: String!, $cursor: String) {
  repository(owner: $owner, name: $name) {
    discussions(first: 25, after: $cursor) {
      nodes {
        id
        number
        title
        url
        body
        createdAt
        author { login }
        category { name }
        comments(first: 50) {
          nodes {
            id
            body
            createdAt
            author { login }
            replies(first: 100) {
              nodes { id body createdAt author { login } }
            }
          }
          pageInfo { hasNextPage endCursor }
        }
      }
      pageInfo { hasNextPage endCursor }
    }
  }
}`

const discussionCommentsQuery = `
query DiscussionComments($id: ID!, $cursor: String) {
  node(id: $id) {
    ... on Discussion {
      comments(first: 50, after: $cursor) {
        nodes {
          id
          body
          createdAt
          author { login }
          replies(first: 100) {
            nodes { id body createdAt author { login } }
          }
        }
        pageInfo { hasNextPage endCursor }
      }
    }
  }
}`
