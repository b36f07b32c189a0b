package flow

import "github.com/BTreeMap/EstatePipe/internal/models"

// User-facing message templates. Kept together so the conversational
// voice stays consistent across states.

const welcomeMsg = `🏠 Welcome to the Real Estate Assistant!

I'm your intelligent helper for managing property listings.

Please select your goal first:
• Register a property
• Search for a property
• Filter properties by keyword
• Edit a property
• View my properties

You can pick from the menu below or type your goal directly.

💬 Both text and voice input are supported!`

const helpMsg = `📚 How to Use This Assistant:

Available commands:
/start - Restart and select your goal
/cancel - Cancel the current operation
/help - Show this help message

How it works:
1. First, select your goal (Register, Search, Filter, or Edit)
2. Provide information step by step (text or voice)
3. I'll remember everything you've told me
4. Review and confirm before submitting
5. You can cancel at any time

Voice support:
You can send a voice message instead of typing at any step.

Smart memory:
I remember all your previous inputs, so you only need to provide missing or updated information.`

const selectGoalMsg = `⚠️ Please specify your goal first. What would you like to do?

Select an option from the menu below:`

const registerStartMsg = `📝 Register a New Property

Please provide the property details. You can type the information or send a voice message, in as many messages as you like.

Example:
"A 120 square meter apartment in New York, 2 bedrooms, 3rd floor, price $500,000"

Required information:
- Property title
- Property type (apartment, house, land, etc.)
- City
- Size (square meters)
- Price

Optional details: neighborhood, address, bedrooms, floor, year built, parking, elevator, storage, description.

Send your information now, or type /cancel to stop.`

const searchStartMsg = `🔍 Search for Properties

Please describe what kind of property you're looking for.

Search by location, size, price range, number of bedrooms, property type or amenities.

Example:
"2-bedroom apartment in downtown, price under $500,000, with parking"

Send your search criteria now, or type /cancel to stop.`

const filterStartMsg = `🔎 Filter Properties by Keyword

Enter keywords to search through all listing descriptions and details.

Examples:
• "luxury penthouse"
• "garden"
• "near subway"

Send your keywords now, or type /cancel to stop.`

const editStartMsg = `✏️ Edit a Property

First, tell me which property you want to edit.
• Describe it (for example: "apartment in Boston under $600,000")
• Or type "show all properties" to list everything

Once I show matching properties, pick the one you want to edit.`

const editNeedFiltersMsg = `⚠️ I did not catch any property details.

Please describe the property you want to edit (city, price, size, etc.), or type "show all properties" to see your entire list.`

const editNoMatchesMsg = `😔 I could not find any of your properties matching that description.

Please refine the details or type "show all properties" to view everything.`

const editAllListedMsg = `📋 Here are all of your properties.

Reply with the ID of the property you want to edit.`

const editSelectPromptMsg = `Reply with the ID of the property you want to edit (for example "3" or "#3"). You can also describe another property or type "show all properties" to refine the list.`

const editChangePromptMsg = `Tell me what to change (text or voice both work).

Examples:
• "Change price to $550,000 and add parking"
• "Delete the description"`

const editSelectFirstMsg = "⚠️ Please select a property to edit first."

const editStaleSelectionMsg = `⚠️ That ID is not in the list I just showed you.

Pick one of the listed properties, or describe a different property to search again.`

const editNotYoursMsg = "⚠️ I couldn't find that property among your listings. Please pick one of your own properties."

const editUpdateFailedMsg = "❌ Failed to update the property. Please try again."

const noOwnedForEditMsg = "You have not registered any properties yet. Add one first, then come back to edit it."

const noOwnedListingsMsg = `You haven't registered any properties yet.

Would you like to register one now?`

const cantUnderstandListingMsg = `❌ I couldn't understand the property information.
Please provide the details more clearly.

Example: 120 square meter apartment in New York, 2 bedrooms, price $500,000`

const cantUnderstandUpdateMsg = `❌ I couldn't understand the update.
Please specify what you'd like to change clearly.`

const cantUnderstandEditMsg = `❌ I couldn't understand what you want to change.
Please specify clearly what to update.

Examples:
• "Change price to $550,000 and add parking"
• "Delete the description"`

const noSearchResultsMsg = `😔 No properties found matching your criteria.

Try:
• Broadening your search criteria
• Removing some filters
• Searching in a different location`

const saveFailedMsg = `❌ An error occurred while saving the property.
Please try again.`

const cancelMsg = `❌ Operation cancelled.

What would you like to do next?`

const genericErrorMsg = "An error occurred. Please try again."

const nextPromptMsg = "What would you like to do next?"

const searchCompleteMsg = "Search complete! What would you like to do next?"

// goalMenu is the choice set offered whenever the user is back at
// goal selection. Choice values are routing keywords.
func goalMenu() []models.Choice {
	return []models.Choice{
		{Label: "📝 Register a property", Value: "register"},
		{Label: "🔍 Search for a property", Value: "search"},
		{Label: "🔎 Filter by keyword", Value: "filter"},
		{Label: "✏️ Edit a property", Value: "edit"},
		{Label: "📋 View my properties", Value: "my properties"},
	}
}
