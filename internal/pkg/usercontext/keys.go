package usercontext

// LocalsKey holds the UserContext in fiber Locals.
const LocalsKey = "USER_CONTEXT"
