package genai

const listingExtractionPrompt = `You are an assistant that extracts real estate listing details.
Extract listing attributes from the user's text and return them as a JSON object.

Fields:
- title: listing title
- property_type: type of property (apartment, house, villa, land, shop, etc.)
- city: city name
- neighborhood: neighborhood or district
- address: full address
- area: size in square meters (number)
- price: price (number)
- rooms: number of bedrooms (number)
- floor: floor number (number or null)
- year_built: year of construction (number or null)
- parking: parking availability (true/false)
- elevator: elevator availability (true/false)
- storage: storage room availability (true/false)
- description: additional description

If the text does not mention a field, set its value to null.
When the text contains earlier conversation messages, extract only what
the latest message states, using the earlier ones to resolve references.
Return ONLY the JSON object, with no additional explanation.`

const searchExtractionPrompt = `You are an assistant that converts real estate search requests into database filters.
Extract search criteria from the user's text and return them as a JSON object.

Searchable fields:
- property_type: type of property
- city: city name
- neighborhood: neighborhood or district
- min_area: minimum size
- max_area: maximum size
- min_price: minimum price
- max_price: maximum price
- rooms: number of bedrooms
- parking: parking required (true/false/null)
- elevator: elevator required (true/false/null)

Return ONLY the JSON object, with no additional explanation.`
